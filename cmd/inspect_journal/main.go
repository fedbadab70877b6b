package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charleschow/topnum/internal/config"
	"github.com/charleschow/topnum/internal/core/journal"
)

func main() {
	cfg := config.Load()
	n := flag.Int("n", 20, "number of recent projections to display")
	dbPath := flag.String("db", cfg.JournalPath, "journal database path")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	store, err := journal.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := printRecent(context.Background(), os.Stdout, store, *n); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printRecent(ctx context.Context, out io.Writer, store *journal.Store, n int) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintln(out, "(no data)")
		return nil
	}

	entries, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rows: %d  |  Showing last %d:\n", count, len(entries))

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "recorded\tplayer\tteam\tpts\tmin\tleft\trate\tlambda\tseason\tp_season\tall_time\tp_all_time")
	fmt.Fprintln(w, "----\t----\t----\t----\t----\t----\t----\t----\t----\t----\t----\t----")

	// Oldest first, so the newest row sits just above the prompt.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		p := e.Projection
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%.1f\t%.1f\t%.3f\t%.2f\t%g/%d\t%.4f\t%g/%d\t%.4f\n",
			e.RecordedAt.Local().Format("01-02 15:04:05"),
			orDash(e.Player), orDash(e.Team),
			e.Observation.CurrentPoints, e.Observation.MinutesPlayed, e.Observation.RemainingMinutes,
			p.RatePerMinute, p.Lambda,
			e.Thresholds.SeasonHigh, p.SeasonHigh.Needed, p.SeasonHigh.Probability,
			e.Thresholds.AllTimeHigh, p.AllTime.Needed, p.AllTime.Probability,
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
