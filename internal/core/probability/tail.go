package probability

import "math"

// TailMethod records how a tail probability was evaluated.
type TailMethod uint8

const (
	// MethodNone: answered by an edge case (threshold ≤ 0 or λ ≤ 0).
	MethodNone TailMethod = iota
	// MethodExact: 1 − CDF by finite summation of the PMF.
	MethodExact
	// MethodNormal: continuity-corrected normal approximation.
	MethodNormal
)

func (m TailMethod) String() string {
	switch m {
	case MethodExact:
		return "exact"
	case MethodNormal:
		return "normal"
	default:
		return "none"
	}
}

// TailProbability returns P(X ≥ threshold) for X ~ Poisson(lambda).
//
// Thresholds up to maxTerms are summed exactly; larger ones fall back to a
// normal approximation. The result is always in [0, 1].
func TailProbability(lambda float64, threshold, maxTerms int) float64 {
	p, _ := tail(lambda, threshold, maxTerms)
	return p
}

func tail(lambda float64, threshold, maxTerms int) (float64, TailMethod) {
	if threshold <= 0 {
		return 1.0, MethodNone
	}
	if lambda <= 0 {
		return 0.0, MethodNone
	}
	if threshold > maxTerms {
		return normalTail(lambda, threshold), MethodNormal
	}
	return exactTail(lambda, threshold), MethodExact
}

// exactTail sums the PMF for 0..threshold-1. Terms are evaluated in log
// space so λ^i and i! never overflow.
func exactTail(lambda float64, threshold int) float64 {
	logLambda := math.Log(lambda)
	cumulative := 0.0
	for i := 0; i < threshold; i++ {
		cumulative += math.Exp(float64(i)*logLambda - lambda - logFactorial(i))
	}
	return clamp01(1.0 - cumulative)
}

// normalTail approximates the tail with N(λ, λ) and a −0.5 continuity
// correction.
func normalTail(lambda float64, threshold int) float64 {
	mean, variance := lambda, lambda
	if variance <= 0 {
		return 0.0
	}
	z := (float64(threshold) - 0.5 - mean) / math.Sqrt(variance)
	return clamp01(1.0 - normalCDF(z))
}

func normalCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/math.Sqrt2))
}

func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	r, _ := math.Lgamma(float64(n + 1))
	return r
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (m TailMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *TailMethod) UnmarshalText(b []byte) error {
	*m = ParseTailMethod(string(b))
	return nil
}

// ParseTailMethod is the inverse of String; unknown names map to MethodNone.
func ParseTailMethod(s string) TailMethod {
	switch s {
	case "exact":
		return MethodExact
	case "normal":
		return MethodNormal
	default:
		return MethodNone
	}
}
