// Package archrun wires a set of islands and a migration topology into one
// driven experiment, persisting its results through storage.Store. It
// mirrors the platform package's Polis.RunEvolution: validate the config,
// run the core, translate the core's result into persisted records, and
// return a public result type distinct from the core's internal ones.
package archrun

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"islandopt/internal/algorithm"
	"islandopt/internal/archipelago"
	"islandopt/internal/diagnostics"
	"islandopt/internal/island"
	"islandopt/internal/migration"
	"islandopt/internal/problem"
	"islandopt/internal/runid"
	"islandopt/internal/storage"
)

// Granularity selects how a round's evolution amount is measured.
type Granularity int

const (
	// ByGenerations drives each island for a fixed number of algorithm
	// iterations per round.
	ByGenerations Granularity = iota
	// ByWallClock drives each island for a fixed wall-clock budget per
	// round.
	ByWallClock
)

// IslandSpec describes one island to construct before the run starts.
type IslandSpec struct {
	Problem    problem.Problem
	Algorithm  algorithm.Algorithm
	Size       int
	MigrProb   float64
	SPolicy    migration.Selector
	RPolicy    migration.Replacer
	Seed       int64
}

// Config describes one experiment: the islands to build, how they are
// connected, and how long to run them.
type Config struct {
	Store       storage.Store
	Islands     []IslandSpec
	Topology    archipelago.Topology
	Rounds      int
	Granularity Granularity
	// RoundAmount is the algorithm-invocation count (ByGenerations) or
	// millisecond budget (ByWallClock) passed to each island every round.
	RoundAmount int64
	// TopologySeed seeds the archipelago's own migration-trigger RNG.
	TopologySeed int64
	Sink         diagnostics.Sink

	// RunID overrides the generated run identifier, for reproducible tests.
	RunID string
}

// Result is the public outcome of one Run: the final champion per island
// plus the identifiers needed to look the run back up in the Store.
type Result struct {
	RunID      string
	Champions  []ChampionResult
	RoundsRun  int
	ElapsedSec float64
}

// ChampionResult is one island's best-known individual at the end of a run.
type ChampionResult struct {
	IslandIndex    int
	DecisionVector []float64
	Fitness        []float64
}

func (cfg Config) validate() error {
	if cfg.Store == nil {
		return fmt.Errorf("archrun: store is required")
	}
	if len(cfg.Islands) == 0 {
		return fmt.Errorf("archrun: at least one island spec is required")
	}
	if cfg.Rounds <= 0 {
		return fmt.Errorf("archrun: rounds must be positive, got %d", cfg.Rounds)
	}
	if cfg.RoundAmount <= 0 {
		return fmt.Errorf("archrun: round amount must be positive, got %d", cfg.RoundAmount)
	}
	for i, spec := range cfg.Islands {
		if spec.Problem == nil {
			return fmt.Errorf("archrun: island %d: problem is required", i)
		}
		if spec.Algorithm == nil {
			return fmt.Errorf("archrun: island %d: algorithm is required", i)
		}
		if spec.Size <= 0 {
			return fmt.Errorf("archrun: island %d: size must be positive, got %d", i, spec.Size)
		}
	}
	return nil
}

// Run builds an Archipelago from cfg, drives it for cfg.Rounds rounds,
// harvests champions into ChampionSnapshots after each round, and persists
// the finished RunRecord through cfg.Store. Errors from the core evolution
// surface unchanged; persistence errors are wrapped and returned after the
// run without discarding the already-computed result.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	sink := cfg.Sink
	if sink == nil {
		sink = diagnostics.Noop{}
	}

	islands := make([]*island.Island, len(cfg.Islands))
	for i, spec := range cfg.Islands {
		isl, err := island.New(spec.Problem, spec.Algorithm, spec.Size, spec.MigrProb, spec.SPolicy, spec.RPolicy, rand.New(rand.NewSource(spec.Seed)))
		if err != nil {
			return Result{}, err
		}
		isl.SetSink(sink)
		islands[i] = isl
	}

	arch, err := archipelago.New(islands, cfg.Topology, cfg.TopologySeed)
	if err != nil {
		return Result{}, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = runid.New()
	}
	startedAt := time.Now()

	if err := cfg.Store.Init(ctx); err != nil {
		return Result{}, fmt.Errorf("archrun: init store: %w", err)
	}

	roundsRun := 0
	var persistErr error
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if cfg.Granularity == ByWallClock {
			err = arch.AdvanceRoundT(cfg.RoundAmount)
		} else {
			err = arch.AdvanceRound(int(cfg.RoundAmount))
		}
		if err != nil {
			return Result{}, err
		}
		roundsRun++

		if err := harvestRound(ctx, cfg.Store, runID, round, arch); err != nil && persistErr == nil {
			persistErr = fmt.Errorf("archrun: persist round %d: %w", round, err)
		}
		if err := persistMigrations(ctx, cfg.Store, runID, round, arch); err != nil && persistErr == nil {
			persistErr = fmt.Errorf("archrun: persist round %d migrations: %w", round, err)
		}
	}

	champions := arch.Champions()
	results := make([]ChampionResult, len(champions))
	for i, champ := range champions {
		results[i] = ChampionResult{IslandIndex: i, DecisionVector: champ.BestX, Fitness: champ.BestF}
	}

	run := storage.RunRecord{
		RunID:       runID,
		StartedAt:   runid.FormatTime(startedAt),
		FinishedAt:  runid.FormatTime(time.Now()),
		IslandCount: len(islands),
		Topology:    fmt.Sprintf("%v", cfg.Topology),
	}
	saveErr := cfg.Store.SaveRun(ctx, run)

	result := Result{
		RunID:      runID,
		Champions:  results,
		RoundsRun:  roundsRun,
		ElapsedSec: time.Since(startedAt).Seconds(),
	}
	if saveErr != nil {
		return result, fmt.Errorf("archrun: save run record: %w", saveErr)
	}
	return result, persistErr
}

func harvestRound(ctx context.Context, store storage.Store, runID string, round int, arch *archipelago.Archipelago) error {
	islands := arch.Islands()
	for i, isl := range islands {
		champ := isl.Population().Champion()
		snap := storage.ChampionSnapshot{
			RunID:              runID,
			IslandIndex:        i,
			Round:              round,
			Fitness:            champ.BestF,
			DecisionVector:     champ.BestX,
			ElapsedEvolutionMS: isl.EvolutionTimeMs(),
		}
		if err := store.AppendChampionSnapshot(ctx, runID, snap); err != nil {
			return err
		}
	}
	return nil
}

func persistMigrations(ctx context.Context, store storage.Store, runID string, round int, arch *archipelago.Archipelago) error {
	for _, evt := range arch.DrainEvents() {
		record := storage.MigrationEvent{
			RunID:         runID,
			Round:         round,
			SourceIsland:  evt.SourceIsland,
			DestIsland:    evt.DestIsland,
			EmigrantCount: evt.EmigrantCount,
			AppliedCount:  evt.AppliedCount,
		}
		if err := store.AppendMigrationEvent(ctx, runID, record); err != nil {
			return err
		}
	}
	return nil
}
