// Package probability estimates how likely a player is to break a points
// threshold before the final whistle.
//
// Scoring is modeled as a Poisson process whose per-minute rate carries a
// Gamma prior centered on the league average. The posterior mean rate,
// projected over the remaining minutes, gives a Poisson mean for the points
// still to come; the break probability is that distribution's upper tail at
// the number of points still needed.
//
// Everything here is a pure function of its arguments and safe for
// concurrent use.
package probability

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfig      = errors.New("invalid estimator config")
	ErrInvalidObservation = errors.New("invalid observation")
	ErrInvalidThresholds  = errors.New("invalid thresholds")
)

// Config holds the estimator's tuning. It is a value type: copy it, never
// share a mutable instance.
type Config struct {
	// League-average points per minute of play; the prior mean.
	PriorRatePerMinute float64 `yaml:"prior_rate_per_minute" json:"prior_rate_per_minute"`
	// Pseudo-minutes of evidence behind the prior. Larger values make the
	// prior harder to override.
	PriorMinutes float64 `yaml:"prior_minutes" json:"prior_minutes"`
	// Largest needed-points count summed exactly; above it the tail uses a
	// normal approximation.
	MaxPoissonTerms int `yaml:"max_poisson_terms" json:"max_poisson_terms"`
}

const (
	DefaultPriorRatePerMinute = 0.65
	DefaultPriorMinutes       = 12.0
	DefaultMaxPoissonTerms    = 250
)

func DefaultConfig() Config {
	return Config{
		PriorRatePerMinute: DefaultPriorRatePerMinute,
		PriorMinutes:       DefaultPriorMinutes,
		MaxPoissonTerms:    DefaultMaxPoissonTerms,
	}
}

// Validate reports whether c is inside the estimator's contract. The
// estimator itself never calls it; callers check at their boundary.
func (c Config) Validate() error {
	if !positiveFinite(c.PriorRatePerMinute) {
		return fmt.Errorf("%w: prior_rate_per_minute must be positive, got %v", ErrInvalidConfig, c.PriorRatePerMinute)
	}
	if !positiveFinite(c.PriorMinutes) {
		return fmt.Errorf("%w: prior_minutes must be positive, got %v", ErrInvalidConfig, c.PriorMinutes)
	}
	if c.MaxPoissonTerms < 1 {
		return fmt.Errorf("%w: max_poisson_terms must be at least 1, got %d", ErrInvalidConfig, c.MaxPoissonTerms)
	}
	return nil
}

// Observation is a player's scoring line at one instant of a game.
type Observation struct {
	CurrentPoints    float64 `json:"current_points"`
	MinutesPlayed    float64 `json:"minutes_played"`
	RemainingMinutes float64 `json:"remaining_minutes"`
}

// Validate rejects values the estimator treats as caller error. Zero or
// negative minutes are allowed; they produce the zero result.
func (o Observation) Validate() error {
	switch {
	case !finite(o.CurrentPoints):
		return fmt.Errorf("%w: current_points is not finite", ErrInvalidObservation)
	case o.CurrentPoints < 0:
		return fmt.Errorf("%w: current_points must be non-negative, got %v", ErrInvalidObservation, o.CurrentPoints)
	case !finite(o.MinutesPlayed):
		return fmt.Errorf("%w: minutes_played is not finite", ErrInvalidObservation)
	case !finite(o.RemainingMinutes):
		return fmt.Errorf("%w: remaining_minutes is not finite", ErrInvalidObservation)
	}
	return nil
}

// Thresholds are the two point totals being chased.
type Thresholds struct {
	SeasonHigh  float64 `json:"season_high"`
	AllTimeHigh float64 `json:"all_time_high"`
}

func (t Thresholds) Validate() error {
	switch {
	case !finite(t.SeasonHigh):
		return fmt.Errorf("%w: season_high is not finite", ErrInvalidThresholds)
	case t.SeasonHigh < 0:
		return fmt.Errorf("%w: season_high must be non-negative, got %v", ErrInvalidThresholds, t.SeasonHigh)
	case !finite(t.AllTimeHigh):
		return fmt.Errorf("%w: all_time_high is not finite", ErrInvalidThresholds)
	case t.AllTimeHigh < 0:
		return fmt.Errorf("%w: all_time_high must be non-negative, got %v", ErrInvalidThresholds, t.AllTimeHigh)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positiveFinite(v float64) bool { return finite(v) && v > 0 }
