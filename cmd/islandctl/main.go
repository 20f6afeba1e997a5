package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"islandopt/internal/archipelago"
	"islandopt/internal/archrun"
	"islandopt/internal/migration"
	"islandopt/internal/problem"
	"islandopt/internal/report"
	"islandopt/internal/sade"
	"islandopt/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "island":
		return runIslandStatus(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: islandctl <run|island|history|report> [flags]", msg)
}

func openStore(ctx context.Context, storeKind, dbPath string) (storage.Store, error) {
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	runID := fs.String("run-id", "", "explicit run id (optional)")
	islands := fs.Int("islands", 3, "number of islands")
	dim := fs.Int("dim", 10, "sphere problem dimension")
	bound := fs.Float64("bound", 5.0, "sphere problem box bound")
	popSize := fs.Int("pop", 30, "population size per island")
	gensPerRound := fs.Int("gens-per-round", 20, "algorithm generations advanced per round")
	rounds := fs.Int("rounds", 10, "number of rounds to drive")
	migrProb := fs.Float64("migr-prob", 0.1, "per-round migration probability")
	seed := fs.Int64("seed", 1, "base rng seed")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "islandopt.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *islands <= 0 {
		return fmt.Errorf("islands must be > 0")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	specs := make([]archrun.IslandSpec, *islands)
	for i := 0; i < *islands; i++ {
		prob, err := problem.NewSphere(*dim, *bound)
		if err != nil {
			return err
		}
		islandSeed := *seed + int64(i)*2
		algo, err := sade.New(sade.Config{Gen: *gensPerRound, Variant: 2, VariantAdptv: 1}, islandSeed, islandSeed+1)
		if err != nil {
			return err
		}
		specs[i] = archrun.IslandSpec{
			Problem:   prob,
			Algorithm: algo,
			Size:      *popSize,
			MigrProb:  *migrProb,
			SPolicy:   migration.BestKSelector{K: 1},
			RPolicy:   migration.ReplaceWorstReplacer{},
			Seed:      islandSeed,
		}
	}

	cfg := archrun.Config{
		Store:        store,
		Islands:      specs,
		Topology:     archipelago.Ring(*islands),
		Rounds:       *rounds,
		Granularity:  archrun.ByGenerations,
		RoundAmount:  1,
		TopologySeed: *seed,
		RunID:        *runID,
	}

	result, err := archrun.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("run %s completed: %d rounds, %d islands, %.3fs elapsed\n", result.RunID, result.RoundsRun, len(result.Champions), result.ElapsedSec)
	for _, champ := range result.Champions {
		fmt.Printf("  island %d: fitness=%v\n", champ.IslandIndex, champ.Fitness)
	}
	return nil
}

func runIslandStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("island", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	islandIndex := fs.Int("island", 0, "island index")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "islandopt.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("island: --run is required")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	history, err := store.GetChampionHistory(ctx, *runID)
	if err != nil {
		return err
	}
	var latest *storage.ChampionSnapshot
	for i := range history {
		snap := history[i]
		if snap.IslandIndex != *islandIndex {
			continue
		}
		if latest == nil || snap.Round >= latest.Round {
			latest = &snap
		}
	}
	if latest == nil {
		return fmt.Errorf("island: no snapshot found for run=%s island=%d", *runID, *islandIndex)
	}

	fmt.Printf("island %d (round %d): fitness=%v evolution_time_ms=%d\n", latest.IslandIndex, latest.Round, latest.Fitness, latest.ElapsedEvolutionMS)
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "islandopt.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("history: --run is required")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	history, err := store.GetChampionHistory(ctx, *runID)
	if err != nil {
		return err
	}
	report.RenderHistoryTable(os.Stdout, history)
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "islandopt.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("report: --run is required")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	runRecord, ok, err := store.GetRun(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("report: run not found: %s", *runID)
	}
	history, err := store.GetChampionHistory(ctx, *runID)
	if err != nil {
		return err
	}
	migrations, err := store.GetMigrationLog(ctx, *runID)
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, runRecord, history, migrations, report.Options{})
}
