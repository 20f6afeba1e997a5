package islandopt_test

import (
	"context"
	"testing"

	"islandopt/pkg/islandopt"
)

func TestClientRunAndHistory(t *testing.T) {
	ctx := context.Background()
	client, err := islandopt.New(islandopt.Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, islandopt.RunRequest{
		RunID:        "facade-run",
		Islands:      2,
		Dimension:    3,
		Population:   10,
		GensPerRound: 5,
		Rounds:       2,
		Seed:         3,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "facade-run" {
		t.Fatalf("expected honored run id, got %q", summary.RunID)
	}
	if len(summary.Champions) != 2 {
		t.Fatalf("expected 2 champions, got %d", len(summary.Champions))
	}

	history, err := client.History(ctx, "facade-run")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("expected non-empty champion history")
	}
}

func TestNewDefaultsToMemoryStore(t *testing.T) {
	client, err := islandopt.New(islandopt.Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
