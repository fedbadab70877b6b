package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charleschow/topnum/internal/config"
	"github.com/charleschow/topnum/internal/core/gameclock"
	"github.com/charleschow/topnum/internal/core/journal"
	"github.com/charleschow/topnum/internal/core/probability"
	"github.com/charleschow/topnum/internal/core/projection"
	"github.com/charleschow/topnum/internal/core/records"
	"github.com/charleschow/topnum/internal/telemetry"
)

type options struct {
	player string
	team   string
	gameID string

	points    float64
	played    string
	remaining float64
	period    int
	clock     string

	seasonHigh  float64
	allTimeHigh float64

	asJSON    bool
	noJournal bool
}

func main() {
	var o options
	flag.StringVar(&o.player, "player", "", "player name, used for the records lookup")
	flag.StringVar(&o.team, "team", "", "team tricode (journal only)")
	flag.StringVar(&o.gameID, "game", "", "game id (journal only)")
	flag.Float64Var(&o.points, "points", 0, "points scored so far")
	flag.StringVar(&o.played, "played", "", `minutes played: "24.5", "24:30" or "PT24M30.00S"`)
	flag.Float64Var(&o.remaining, "remaining", -1, "game minutes remaining (or use -period/-clock)")
	flag.IntVar(&o.period, "period", 0, "current period: 1-4 regulation, 5+ overtime")
	flag.StringVar(&o.clock, "clock", "", `period clock: "5:32" or "PT05M32.00S"`)
	flag.Float64Var(&o.seasonHigh, "season-high", 0, "season high override")
	flag.Float64Var(&o.allTimeHigh, "all-time-high", 0, "all-time high override")
	flag.BoolVar(&o.asJSON, "json", false, "print the projection as JSON")
	flag.BoolVar(&o.noJournal, "no-journal", false, "skip writing to the projection journal")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	err := run(context.Background(), cfg, o, os.Stdout)
	logLatency()
	if err != nil {
		telemetry.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o options, out io.Writer) error {
	req, label, err := buildRequest(o)
	if err != nil {
		return err
	}

	recs, err := records.LoadWithDefaults(cfg.RecordsPath)
	if err != nil {
		return err
	}
	if req.Thresholds == nil && (o.seasonHigh > 0 || o.allTimeHigh > 0) {
		th, err := partialThresholds(recs, o)
		if err != nil {
			return err
		}
		req.Thresholds = &th
	}

	var j projection.Journal
	if cfg.JournalEnabled && !o.noJournal {
		store, err := journal.OpenStore(cfg.JournalPath)
		if err != nil {
			telemetry.Warnf("Journal disabled: %v", err)
		} else {
			defer store.Close()
			j = store
		}
	}

	svc, err := projection.NewService(cfg.ModelConfig(), recs, j)
	if err != nil {
		return err
	}
	eval, err := svc.Evaluate(ctx, req)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}
	printEvaluation(out, o.player, label, req.Observation, eval)
	return nil
}

// buildRequest also returns the scoreboard label when the game clock was
// given.
func buildRequest(o options) (projection.Request, string, error) {
	played, err := parsePlayed(o.played)
	if err != nil {
		return projection.Request{}, "", err
	}

	remaining := o.remaining
	var label string
	if o.period > 0 {
		clock, err := gameclock.ParseClock(o.clock)
		if err != nil {
			return projection.Request{}, "", fmt.Errorf("-clock: %w", err)
		}
		remaining = gameclock.Remaining(o.period, clock)
		label = gameclock.Label(o.period, clock)
	}
	if remaining < 0 {
		return projection.Request{}, "", errors.New("one of -remaining or -period/-clock is required")
	}

	req := projection.Request{
		Player: o.player,
		Team:   o.team,
		GameID: o.gameID,
		Observation: probability.Observation{
			CurrentPoints:    o.points,
			MinutesPlayed:    played,
			RemainingMinutes: remaining,
		},
	}
	if o.seasonHigh > 0 && o.allTimeHigh > 0 {
		req.Thresholds = &probability.Thresholds{SeasonHigh: o.seasonHigh, AllTimeHigh: o.allTimeHigh}
	}
	return req, label, nil
}

// partialThresholds fills whichever threshold was not given on the command
// line from the records table.
func partialThresholds(recs *records.Table, o options) (probability.Thresholds, error) {
	th, _ := recs.Thresholds(o.player)
	if th.AllTimeHigh == 0 {
		th.AllTimeHigh = recs.League.AllTimeHigh
	}
	if o.seasonHigh > 0 {
		th.SeasonHigh = o.seasonHigh
	}
	if o.allTimeHigh > 0 {
		th.AllTimeHigh = o.allTimeHigh
	}
	if th.SeasonHigh <= 0 || th.AllTimeHigh <= 0 {
		return th, fmt.Errorf("%w: %q (pass -season-high and -all-time-high)", projection.ErrUnknownThresholds, o.player)
	}
	return th, nil
}

func parsePlayed(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("-played is required")
	}
	if m, err := strconv.ParseFloat(s, 64); err == nil {
		return m, nil
	}
	m, err := gameclock.ParseMinutes(s)
	if err != nil {
		return 0, fmt.Errorf("-played: %w", err)
	}
	return m, nil
}

func printEvaluation(out io.Writer, player, label string, obs probability.Observation, eval projection.Evaluation) {
	if player == "" {
		player = "Player"
	}
	p := eval.Projection
	fmt.Fprintf(out, "%s: %g pts in %.1f min, %.1f min left", player, obs.CurrentPoints, obs.MinutesPlayed, obs.RemainingMinutes)
	if label != "" {
		fmt.Fprintf(out, " (%s)", label)
	}
	fmt.Fprintln(out)
	if p.Degenerate {
		fmt.Fprintln(out, "No time played or remaining; nothing to project.")
	} else {
		fmt.Fprintf(out, "Rate %.3f pts/min  projected +%.1f pts\n", p.RatePerMinute, p.Lambda)
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "target\tpoints\tneeded\tchance\tmethod")
	fmt.Fprintf(w, "season high\t%g\t%d\t%s\t%s\n", eval.Thresholds.SeasonHigh, p.SeasonHigh.Needed, pct(eval.Result.SeasonHigh), p.SeasonHigh.Method)
	fmt.Fprintf(w, "all-time\t%g\t%d\t%s\t%s\n", eval.Thresholds.AllTimeHigh, p.AllTime.Needed, pct(eval.Result.AllTime), p.AllTime.Method)
	w.Flush()
}

func pct(p float64) string {
	switch {
	case p == 0:
		return "0%"
	case p < 0.001:
		return "<0.1%"
	case p > 0.999 && p < 1:
		return ">99.9%"
	default:
		return fmt.Sprintf("%.1f%%", p*100)
	}
}

func logLatency() {
	lt := telemetry.Metrics.EstimateLatency
	if lt.Len() == 0 {
		return
	}
	telemetry.Debugf("estimate latency  n=%d  p50=%s  p99=%s", lt.Len(), lt.P50(), lt.P99())
}
