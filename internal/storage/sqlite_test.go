//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "islandopt.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := RunRecord{RunID: "run-1", IslandCount: 4, Topology: "ring"}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, run.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", run.RunID)
	}
	if loaded.IslandCount != run.IslandCount || loaded.Topology != run.Topology {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	snap := ChampionSnapshot{RunID: run.RunID, IslandIndex: 0, Round: 1, Fitness: []float64{0.5}}
	if err := store.AppendChampionSnapshot(ctx, run.RunID, snap); err != nil {
		t.Fatalf("append snapshot: %v", err)
	}
	history, err := store.GetChampionHistory(ctx, run.RunID)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 1 || history[0].Round != 1 {
		t.Fatalf("unexpected history: %+v", history)
	}

	evt := MigrationEvent{RunID: run.RunID, Round: 1, SourceIsland: 0, DestIsland: 1, EmigrantCount: 1, AppliedCount: 1}
	if err := store.AppendMigrationEvent(ctx, run.RunID, evt); err != nil {
		t.Fatalf("append event: %v", err)
	}
	log, err := store.GetMigrationLog(ctx, run.RunID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if len(log) != 1 || log[0].DestIsland != 1 {
		t.Fatalf("unexpected log: %+v", log)
	}
}

func TestSQLiteStoreGetRunMissing(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "islandopt.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	_, ok, err := store.GetRun(ctx, "missing")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatal("expected no run")
	}
}
