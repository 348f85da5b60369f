package engine

import "math"

// gumbelLogSurv returns log P(S > x) for a Gumbel distribution with
// location mu and scale lambda.
func gumbelLogSurv(x, mu, lambda float64) float64 {
	y := -lambda * (x - mu)
	ey := math.Exp(y)
	if ey < 1e-7 {
		// 1 - exp(-e) ~= e for small e
		return y
	}
	return math.Log(-math.Expm1(-ey))
}

// expLogSurv returns log P(S > x) for an exponential tail starting at tau
// with slope lambda. Scores below tau get P = 1.
func expLogSurv(x, tau, lambda float64) float64 {
	if x < tau {
		return 0
	}
	return -lambda * (x - tau)
}
