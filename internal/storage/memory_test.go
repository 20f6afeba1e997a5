package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := RunRecord{RunID: "run-1", IslandCount: 4, Topology: "ring"}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if got.IslandCount != 4 || got.Topology != "ring" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.SchemaVersion != CurrentSchemaVersion || got.CodecVersion != CurrentCodecVersion {
		t.Fatalf("expected stamped versions, got %+v", got)
	}
}

func TestMemoryStoreGetRunMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	_, ok, err := store.GetRun(ctx, "nope")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatal("expected no run")
	}
}

func TestMemoryStoreListRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveRun(ctx, RunRecord{RunID: "a"}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := store.SaveRun(ctx, RunRecord{RunID: "b"}); err != nil {
		t.Fatalf("save b: %v", err)
	}
	ids, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(ids))
	}
}

func TestMemoryStoreChampionHistoryAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for round := 0; round < 3; round++ {
		snap := ChampionSnapshot{RunID: "run-1", IslandIndex: 0, Round: round, Fitness: []float64{float64(3 - round)}}
		if err := store.AppendChampionSnapshot(ctx, "run-1", snap); err != nil {
			t.Fatalf("append snapshot %d: %v", round, err)
		}
	}

	history, err := store.GetChampionHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(history))
	}
	for round, snap := range history {
		if snap.Round != round {
			t.Fatalf("expected round %d at index %d, got %d", round, round, snap.Round)
		}
	}
}

func TestMemoryStoreChampionHistoryIsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.AppendChampionSnapshot(ctx, "run-1", ChampionSnapshot{RunID: "run-1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := store.GetChampionHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	history[0].Round = 99

	again, err := store.GetChampionHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history again: %v", err)
	}
	if again[0].Round == 99 {
		t.Fatal("expected caller mutation not to leak into store")
	}
}

func TestMemoryStoreMigrationLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	evt := MigrationEvent{RunID: "run-1", Round: 1, SourceIsland: 0, DestIsland: 1, EmigrantCount: 2, AppliedCount: 2}
	if err := store.AppendMigrationEvent(ctx, "run-1", evt); err != nil {
		t.Fatalf("append event: %v", err)
	}
	log, err := store.GetMigrationLog(ctx, "run-1")
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if len(log) != 1 || log[0].DestIsland != 1 {
		t.Fatalf("unexpected log: %+v", log)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	_, _, err := store.GetRun(context.Background(), "run-1")
	if err == nil {
		t.Fatal("expected error before Init")
	}
}
