// Package islandopt is a thin public facade over the internal archipelago
// orchestrator and run store, grounded on the teacher's own pkg/protogonos
// facade (a Client wrapping the platform + storage packages so library
// consumers never import internal/...).
package islandopt

import (
	"context"

	"islandopt/internal/archipelago"
	"islandopt/internal/archrun"
	"islandopt/internal/migration"
	"islandopt/internal/problem"
	"islandopt/internal/sade"
	"islandopt/internal/storage"
)

const defaultDBPath = "islandopt.db"

// Options configures a Client's storage backend.
type Options struct {
	StoreKind string
	DBPath    string
}

// Client owns a Store and drives runs against it.
type Client struct {
	store storage.Store
}

// New constructs a Client backed by the named store.
func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// Close releases the underlying store, if it supports closing.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// RunRequest describes one sphere-benchmark archipelago run at the facade
// level: enough to build IslandSpecs and a ring topology without the
// caller touching internal packages directly.
type RunRequest struct {
	RunID        string
	Islands      int
	Dimension    int
	Bound        float64
	Population   int
	GensPerRound int
	Rounds       int
	MigrProb     float64
	Seed         int64
}

func (req RunRequest) withDefaults() RunRequest {
	if req.Islands <= 0 {
		req.Islands = 3
	}
	if req.Dimension <= 0 {
		req.Dimension = 10
	}
	if req.Bound <= 0 {
		req.Bound = 5.0
	}
	if req.Population <= 0 {
		req.Population = 30
	}
	if req.GensPerRound <= 0 {
		req.GensPerRound = 20
	}
	if req.Rounds <= 0 {
		req.Rounds = 10
	}
	if req.MigrProb <= 0 {
		req.MigrProb = 0.1
	}
	return req
}

// RunSummary is the public outcome of Run.
type RunSummary struct {
	RunID      string
	Champions  []archrun.ChampionResult
	RoundsRun  int
	ElapsedSec float64
}

// Run builds a ring-connected archipelago of sphere-benchmark islands from
// req, drives it, and persists the result through the Client's Store.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req = req.withDefaults()
	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	specs := make([]archrun.IslandSpec, req.Islands)
	for i := 0; i < req.Islands; i++ {
		prob, err := problem.NewSphere(req.Dimension, req.Bound)
		if err != nil {
			return RunSummary{}, err
		}
		islandSeed := req.Seed + int64(i)*2
		algo, err := sade.New(sade.Config{Gen: req.GensPerRound, Variant: 2, VariantAdptv: 1}, islandSeed, islandSeed+1)
		if err != nil {
			return RunSummary{}, err
		}
		specs[i] = archrun.IslandSpec{
			Problem:   prob,
			Algorithm: algo,
			Size:      req.Population,
			MigrProb:  req.MigrProb,
			SPolicy:   migration.BestKSelector{K: 1},
			RPolicy:   migration.ReplaceWorstReplacer{},
			Seed:      islandSeed,
		}
	}

	result, err := archrun.Run(ctx, archrun.Config{
		Store:        c.store,
		Islands:      specs,
		Topology:     archipelago.Ring(req.Islands),
		Rounds:       req.Rounds,
		Granularity:  archrun.ByGenerations,
		RoundAmount:  int64(req.GensPerRound),
		TopologySeed: req.Seed,
		RunID:        req.RunID,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:      result.RunID,
		Champions:  result.Champions,
		RoundsRun:  result.RoundsRun,
		ElapsedSec: result.ElapsedSec,
	}, nil
}

// History returns the persisted champion history for runID.
func (c *Client) History(ctx context.Context, runID string) ([]storage.ChampionSnapshot, error) {
	return c.store.GetChampionHistory(ctx, runID)
}

// MigrationLog returns the persisted migration event log for runID.
func (c *Client) MigrationLog(ctx context.Context, runID string) ([]storage.MigrationEvent, error) {
	return c.store.GetMigrationLog(ctx, runID)
}
