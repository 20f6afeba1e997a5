package storage

import "testing"

func TestEncodeDecodeRunRoundTrip(t *testing.T) {
	run := RunRecord{RunID: "run-1", IslandCount: 3, Topology: "ring"}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != run.RunID || got.IslandCount != run.IslandCount {
		t.Fatalf("unexpected run after round trip: %+v", got)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	data := []byte(`{"RunID":"run-1","SchemaVersion":99,"CodecVersion":1}`)
	if _, err := DecodeRun(data); err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestEncodeDecodeChampionHistoryRoundTrip(t *testing.T) {
	snaps := []ChampionSnapshot{
		{RunID: "run-1", IslandIndex: 0, Round: 0, Fitness: []float64{1.5}},
		{RunID: "run-1", IslandIndex: 1, Round: 0, Fitness: []float64{2.5}},
	}
	data, err := EncodeChampionHistory(snaps)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeChampionHistory(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[1].Fitness[0] != 2.5 {
		t.Fatalf("unexpected history after round trip: %+v", got)
	}
}

func TestEncodeDecodeMigrationLogRoundTrip(t *testing.T) {
	events := []MigrationEvent{
		{RunID: "run-1", Round: 1, SourceIsland: 0, DestIsland: 1, EmigrantCount: 1, AppliedCount: 1},
	}
	data, err := EncodeMigrationLog(events)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMigrationLog(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].SourceIsland != 0 || got[0].DestIsland != 1 {
		t.Fatalf("unexpected log after round trip: %+v", got)
	}
}
