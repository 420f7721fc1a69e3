package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// CDF is the cumulative distribution function of the standard normal
// distribution. Implementations must satisfy CDF(0) = 0.5, be monotone
// non-decreasing and symmetric: CDF(z) + CDF(-z) = 1.
//
// Pricing accuracy in the tails is bounded by the CDF used; the pricer
// does not try to improve on it.
type CDF func(z float64) float64

// NormCDF evaluates Φ(z) through gonum's unit normal, which is erfc based
// and keeps relative accuracy deep in the lower tail.
func NormCDF(z float64) float64 {
	return distuv.UnitNormal.CDF(z)
}

// ErfCDF computes Φ(z) as 0.5 * (1 + erf(z/√2)).
// It loses relative accuracy for z far below zero since 1 + erf(z/√2)
// cancels there.
func ErfCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/math.Sqrt2))
}
