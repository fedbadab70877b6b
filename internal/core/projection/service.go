package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charleschow/topnum/internal/core/journal"
	"github.com/charleschow/topnum/internal/core/probability"
	"github.com/charleschow/topnum/internal/core/records"
	"github.com/charleschow/topnum/internal/telemetry"
)

var ErrUnknownThresholds = errors.New("no thresholds known for player")

// Request is one live scoring line to evaluate.
type Request struct {
	Player string
	Team   string
	GameID string

	Observation probability.Observation
	// Thresholds, when set, bypass the records lookup.
	Thresholds *probability.Thresholds
}

type Evaluation struct {
	Thresholds probability.Thresholds `json:"thresholds"`
	Projection probability.Projection `json:"projection"`
	Result     probability.Result     `json:"result"`
}

// Service is the checked entry point in front of the estimator. It validates
// input, resolves thresholds from the records table and journals each
// projection. A nil journal disables persistence.
type Service struct {
	cfg     probability.Config
	records *records.Table
	journal Journal
	now     func() time.Time
}

func NewService(cfg probability.Config, recs *records.Table, j Journal) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, records: recs, journal: j, now: time.Now}, nil
}

func (s *Service) Config() probability.Config { return s.cfg }

func (s *Service) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	start := s.now()

	if err := req.Observation.Validate(); err != nil {
		telemetry.Metrics.RejectedRequests.Inc()
		return Evaluation{}, fmt.Errorf("evaluate %s: %w", req.Player, err)
	}
	th, err := s.thresholds(req)
	if err != nil {
		telemetry.Metrics.RejectedRequests.Inc()
		return Evaluation{}, err
	}
	if err := th.Validate(); err != nil {
		telemetry.Metrics.RejectedRequests.Inc()
		return Evaluation{}, fmt.Errorf("evaluate %s: %w", req.Player, err)
	}

	proj := probability.Project(req.Observation, th, s.cfg)
	s.count(proj)

	eval := Evaluation{Thresholds: th, Projection: proj, Result: proj.Result()}
	telemetry.Metrics.EstimateLatency.Record(s.now().Sub(start))
	telemetry.L().Debug("projection",
		"player", req.Player,
		"points", req.Observation.CurrentPoints,
		"lambda", proj.Lambda,
		"season_high", eval.Result.SeasonHigh,
		"all_time", eval.Result.AllTime,
	)

	if s.journal != nil {
		entry := journal.Entry{
			RecordedAt:  start,
			Player:      req.Player,
			Team:        req.Team,
			GameID:      req.GameID,
			Observation: req.Observation,
			Thresholds:  th,
			Projection:  proj,
		}
		if err := s.journal.Record(ctx, entry); err != nil {
			telemetry.Metrics.JournalErrors.Inc()
			telemetry.Warnf("projection: journal %s: %v", req.Player, err)
		} else {
			telemetry.Metrics.JournalWrites.Inc()
		}
	}

	return eval, nil
}

func (s *Service) thresholds(req Request) (probability.Thresholds, error) {
	if req.Thresholds != nil {
		return *req.Thresholds, nil
	}
	if s.records != nil {
		if th, ok := s.records.Thresholds(req.Player); ok {
			return th, nil
		}
	}
	return probability.Thresholds{}, fmt.Errorf("%w: %q", ErrUnknownThresholds, req.Player)
}

func (s *Service) count(p probability.Projection) {
	telemetry.Metrics.EstimatesComputed.Inc()
	if p.Degenerate {
		telemetry.Metrics.DegenerateEstimates.Inc()
		return
	}
	for _, leg := range []probability.Leg{p.SeasonHigh, p.AllTime} {
		if leg.Method == probability.MethodNormal {
			telemetry.Metrics.NormalApproximations.Inc()
		}
	}
}
