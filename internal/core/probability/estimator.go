package probability

import "math"

// Result maps each threshold to its break probability.
type Result struct {
	SeasonHigh float64 `json:"season_high"`
	AllTime    float64 `json:"all_time"`
}

const (
	KeySeasonHigh = "season_high"
	KeyAllTime    = "all_time"
)

// Map returns the result keyed by KeySeasonHigh and KeyAllTime.
func (r Result) Map() map[string]float64 {
	return map[string]float64{
		KeySeasonHigh: r.SeasonHigh,
		KeyAllTime:    r.AllTime,
	}
}

// Leg is the projection toward one threshold.
type Leg struct {
	Needed      int        `json:"needed"`
	Probability float64    `json:"probability"`
	Method      TailMethod `json:"method"`
}

// Projection carries the intermediate values behind a Result.
type Projection struct {
	Degenerate    bool    `json:"degenerate"`
	RatePerMinute float64 `json:"rate_per_minute"`
	Lambda        float64 `json:"lambda"`
	SeasonHigh    Leg     `json:"season_high"`
	AllTime       Leg     `json:"all_time"`
}

func (p Projection) Result() Result {
	return Result{SeasonHigh: p.SeasonHigh.Probability, AllTime: p.AllTime.Probability}
}

// Estimate returns the probability of reaching each threshold by the end of
// the game. With no minutes played or none remaining both probabilities are
// exactly zero.
func Estimate(obs Observation, th Thresholds, cfg Config) Result {
	return Project(obs, th, cfg).Result()
}

// EstimateDefault is Estimate with DefaultConfig.
func EstimateDefault(obs Observation, th Thresholds) Result {
	return Estimate(obs, th, DefaultConfig())
}

// Project is Estimate with its working shown.
func Project(obs Observation, th Thresholds, cfg Config) Projection {
	if obs.MinutesPlayed <= 0 || obs.RemainingMinutes <= 0 {
		return Projection{Degenerate: true}
	}

	rate := EstimateRate(obs, cfg)
	lambda := rate * obs.RemainingMinutes

	return Projection{
		RatePerMinute: rate,
		Lambda:        lambda,
		SeasonHigh:    project(lambda, neededPoints(th.SeasonHigh, obs.CurrentPoints), cfg.MaxPoissonTerms),
		AllTime:       project(lambda, neededPoints(th.AllTimeHigh, obs.CurrentPoints), cfg.MaxPoissonTerms),
	}
}

func project(lambda float64, needed, maxTerms int) Leg {
	p, method := tail(lambda, needed, maxTerms)
	return Leg{Needed: needed, Probability: p, Method: method}
}

// neededPoints is the whole number of additional points required to break
// threshold; zero once it is already broken. Gaps too large for an int, and
// NaN, saturate at math.MaxInt so the tail treats them as unreachable.
func neededPoints(threshold, current float64) int {
	d := math.Ceil(threshold - current)
	switch {
	case math.IsNaN(d) || d >= float64(math.MaxInt):
		return math.MaxInt
	case d <= 0:
		return 0
	}
	return int(d)
}
