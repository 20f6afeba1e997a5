// Package report renders a human-readable summary of a persisted run,
// generalizing the teacher's stats package (which turns run data into JSON
// report artifacts) into terminal text for the CLI's report subcommand.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"islandopt/internal/storage"
)

const (
	ansiBold  = "\x1b[1m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// Options controls Render's output.
type Options struct {
	// Color forces ANSI coloring on or off. If nil, Render decides based on
	// whether w is a terminal.
	Color *bool
}

func useColor(w io.Writer, opts Options) bool {
	if opts.Color != nil {
		return *opts.Color
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes a summary of run to w: run metadata, a champion-per-island
// table for the final round, and the migration event count.
func Render(w io.Writer, run storage.RunRecord, history []storage.ChampionSnapshot, migrations []storage.MigrationEvent, opts Options) error {
	color := useColor(w, opts)
	bold := func(s string) string {
		if !color {
			return s
		}
		return ansiBold + s + ansiReset
	}
	green := func(s string) string {
		if !color {
			return s
		}
		return ansiGreen + s + ansiReset
	}

	fmt.Fprintf(w, "%s %s\n", bold("Run:"), run.RunID)
	fmt.Fprintf(w, "  Islands:   %s\n", humanize.Comma(int64(run.IslandCount)))
	fmt.Fprintf(w, "  Topology:  %s\n", run.Topology)
	fmt.Fprintf(w, "  Started:   %s\n", run.StartedAt)
	fmt.Fprintf(w, "  Finished:  %s\n", run.FinishedAt)
	if elapsed, ok := parseElapsed(run.StartedAt, run.FinishedAt); ok {
		fmt.Fprintf(w, "  Elapsed:   %s\n", elapsed)
	}

	finalByIsland := latestByIsland(history)
	fmt.Fprintf(w, "\n%s\n", bold("Champions (final round observed):"))
	for i := 0; i < run.IslandCount; i++ {
		snap, ok := finalByIsland[i]
		if !ok {
			fmt.Fprintf(w, "  island %d: %s\n", i, "no snapshot recorded")
			continue
		}
		fmt.Fprintf(w, "  island %d: fitness=%s (round %s)\n", i, green(fmt.Sprintf("%v", snap.Fitness)), humanize.Comma(int64(snap.Round)))
	}

	fmt.Fprintf(w, "\n%s %s\n", bold("Migration events:"), humanize.Comma(int64(len(migrations))))
	return nil
}

func latestByIsland(history []storage.ChampionSnapshot) map[int]storage.ChampionSnapshot {
	latest := make(map[int]storage.ChampionSnapshot)
	for _, snap := range history {
		if cur, ok := latest[snap.IslandIndex]; !ok || snap.Round >= cur.Round {
			latest[snap.IslandIndex] = snap
		}
	}
	return latest
}

func parseElapsed(started, finished string) (time.Duration, bool) {
	const layout = "2006-01-02 15:04:05"
	s, err := time.Parse(layout, started)
	if err != nil {
		return 0, false
	}
	f, err := time.Parse(layout, finished)
	if err != nil {
		return 0, false
	}
	return f.Sub(s), true
}

// RenderHistoryTable writes a plain champion-fitness-per-round table, used
// by the CLI's history subcommand.
func RenderHistoryTable(w io.Writer, history []storage.ChampionSnapshot) {
	fmt.Fprintln(w, strings.Join([]string{"round", "island", "fitness"}, "\t"))
	for _, snap := range history {
		fmt.Fprintf(w, "%s\t%d\t%v\n", humanize.Comma(int64(snap.Round)), snap.IslandIndex, snap.Fitness)
	}
}
