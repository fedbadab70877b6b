package probability

import "math"

// EstimateRate returns the posterior mean scoring rate in points per minute.
//
// The prior is Gamma(α₀, β₀) with α₀ = PriorRatePerMinute·PriorMinutes and
// β₀ = PriorMinutes, so its mean is PriorRatePerMinute. Observing k points in
// t minutes gives Gamma(α₀+k, β₀+t) by conjugacy; the result is (α₀+k)/(β₀+t).
//
// The result is strictly positive whenever the prior rate is positive, even
// with no points or minutes observed yet.
func EstimateRate(obs Observation, cfg Config) float64 {
	priorAlpha := cfg.PriorRatePerMinute * cfg.PriorMinutes
	priorBeta := cfg.PriorMinutes

	posteriorAlpha := priorAlpha + math.Max(0, obs.CurrentPoints)
	posteriorBeta := priorBeta + obs.MinutesPlayed
	return posteriorAlpha / posteriorBeta
}
