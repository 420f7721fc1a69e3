// Package pricing implements closed-form Black-Scholes-Merton prices for
// European calls and puts on an asset paying a continuous dividend yield.
//
// Every function in this package is pure: no I/O, no logging, no shared
// mutable state. The only numerical seam is the cumulative normal
// distribution, carried by a Pricer as a CDF value.
package pricing

import (
	"fmt"
	"math"
)

// Params holds the six market/contract inputs of one pricing call.
type Params struct {
	Underlying    float64 `json:"underlying_price"` // S, spot
	Strike        float64 `json:"strike_price"`     // K
	Volatility    float64 `json:"volatility"`       // v, annualized
	RiskFreeRate  float64 `json:"risk_free_rate"`   // r, continuously compounded
	TimeToExpiry  float64 `json:"time_to_expiry"`   // t, years
	DividendYield float64 `json:"dividend_yield"`   // q, continuously compounded
}

// Validate reports the first parameter outside the pricing domain.
// Zero volatility and zero time are valid; they select the intrinsic path.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"underlying_price", p.Underlying},
		{"strike_price", p.Strike},
		{"volatility", p.Volatility},
		{"risk_free_rate", p.RiskFreeRate},
		{"time_to_expiry", p.TimeToExpiry},
		{"dividend_yield", p.DividendYield},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return invalid(f.name, f.value, "must be finite")
		}
	}

	switch {
	case p.Underlying <= 0:
		return invalid("underlying_price", p.Underlying, "must be strictly positive")
	case p.Strike <= 0:
		return invalid("strike_price", p.Strike, "must be strictly positive")
	case p.Volatility < 0:
		return invalid("volatility", p.Volatility, "must not be negative")
	case p.TimeToExpiry < 0:
		return invalid("time_to_expiry", p.TimeToExpiry, "must not be negative")
	}
	return nil
}

// Terms are the intermediate quantities shared by the call and put formulas.
//
// The formulas use SpotPV and StrikePV rather than Discount*Forward and
// Discount*K: for large |r*t| the separate factors overflow to +Inf and
// underflow to 0 while their products stay finite.
type Terms struct {
	Discount float64 // df = exp(-r t)
	Forward  float64 // F = S exp((r-q) t)
	SpotPV   float64 // df*F = S exp(-q t)
	StrikePV float64 // df*K = K exp(-r t)
	StdDev   float64 // v sqrt(t)
	D1       float64
	D2       float64
}

// Degenerate reports whether the total standard deviation is zero, in which
// case D1 and D2 are undefined and the price is the discounted intrinsic value.
func (t Terms) Degenerate() bool {
	return t.StdDev == 0
}

// Derive computes the shared terms for p without validating it.
func Derive(p Params) Terms {
	t := Terms{
		Discount: math.Exp(-p.RiskFreeRate * p.TimeToExpiry),
		Forward:  p.Underlying * math.Exp((p.RiskFreeRate-p.DividendYield)*p.TimeToExpiry),
		SpotPV:   p.Underlying * math.Exp(-p.DividendYield*p.TimeToExpiry),
		StrikePV: p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry),
		StdDev:   p.Volatility * math.Sqrt(p.TimeToExpiry),
	}
	if t.Degenerate() {
		return t
	}

	// ln(F/K) without forming F
	d := (math.Log(p.Underlying/p.Strike) + (p.RiskFreeRate-p.DividendYield)*p.TimeToExpiry) / t.StdDev
	t.D1 = d + 0.5*t.StdDev
	t.D2 = t.D1 - t.StdDev
	return t
}

// ParityValue returns df * (F - K), the value Call - Put must equal.
func ParityValue(p Params) float64 {
	t := Derive(p)
	return t.SpotPV - t.StrikePV
}

// DiscountedIntrinsic returns the forward intrinsic value discounted to today:
// df * max(F-K, 0) for a call and df * max(K-F, 0) for a put.
func DiscountedIntrinsic(kind OptionType, p Params) float64 {
	return intrinsic(kind, Derive(p))
}

func intrinsic(kind OptionType, t Terms) float64 {
	if kind == Put {
		return math.Max(t.StrikePV-t.SpotPV, 0)
	}
	return math.Max(t.SpotPV-t.StrikePV, 0)
}

// weight returns amount*prob, taking a zero probability to contribute
// nothing even when amount has overflowed.
func weight(amount, prob float64) float64 {
	if prob == 0 {
		return 0
	}
	return amount * prob
}

// Pricer evaluates Black-Scholes-Merton prices with a given normal CDF.
// A Pricer is immutable and safe for concurrent use.
type Pricer struct {
	cdf CDF
}

// NewPricer returns a Pricer using cdf. A nil cdf selects NormCDF.
func NewPricer(cdf CDF) *Pricer {
	if cdf == nil {
		cdf = NormCDF
	}
	return &Pricer{cdf: cdf}
}

var defaultPricer = NewPricer(NormCDF)

// Default returns the package-level Pricer backed by NormCDF.
func Default() *Pricer { return defaultPricer }

// Call returns the European call premium for p.
//
// The result is df * (F*N(d1) - K*N(d2)). When v*sqrt(t) is zero the
// closed form is not evaluated and the discounted intrinsic value
// df * max(F-K, 0) is returned instead.
//
// Returns an error wrapping ErrInvalidParameter if p fails Validate.
func (pr *Pricer) Call(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	t := Derive(p)
	if t.Degenerate() {
		return intrinsic(Call, t), nil
	}

	return weight(t.SpotPV, pr.cdf(t.D1)) - weight(t.StrikePV, pr.cdf(t.D2)), nil
}

// Put returns the European put premium for p.
//
// The result is df * (-F*N(-d1) + K*N(-d2)), with the same zero-deviation
// fallback as Call using df * max(K-F, 0).
func (pr *Pricer) Put(p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	t := Derive(p)
	if t.Degenerate() {
		return intrinsic(Put, t), nil
	}

	return weight(t.StrikePV, pr.cdf(-t.D2)) - weight(t.SpotPV, pr.cdf(-t.D1)), nil
}

// Price dispatches to Call or Put.
func (pr *Pricer) Price(kind OptionType, p Params) (float64, error) {
	switch kind {
	case Call:
		return pr.Call(p)
	case Put:
		return pr.Put(p)
	}
	return 0, fmt.Errorf("%w: option_type %q must be call or put", ErrInvalidParameter, kind)
}

// BlackScholesCall prices a European call with the default normal CDF.
//
// Parameters:
//   - underlyingPrice: spot price S, > 0
//   - strikePrice: strike K, > 0
//   - volatility: annualized volatility v, >= 0
//   - riskFreeRate: continuously compounded rate r
//   - timeToExpiry: years to expiry t, >= 0
//   - dividendYield: continuous dividend yield q
func BlackScholesCall(
	underlyingPrice float64,
	strikePrice float64,
	volatility float64,
	riskFreeRate float64,
	timeToExpiry float64,
	dividendYield float64,
) (float64, error) {
	return defaultPricer.Call(Params{
		Underlying:    underlyingPrice,
		Strike:        strikePrice,
		Volatility:    volatility,
		RiskFreeRate:  riskFreeRate,
		TimeToExpiry:  timeToExpiry,
		DividendYield: dividendYield,
	})
}

// BlackScholesPut prices a European put with the default normal CDF.
// Parameters are the same as BlackScholesCall.
func BlackScholesPut(
	underlyingPrice float64,
	strikePrice float64,
	volatility float64,
	riskFreeRate float64,
	timeToExpiry float64,
	dividendYield float64,
) (float64, error) {
	return defaultPricer.Put(Params{
		Underlying:    underlyingPrice,
		Strike:        strikePrice,
		Volatility:    volatility,
		RiskFreeRate:  riskFreeRate,
		TimeToExpiry:  timeToExpiry,
		DividendYield: dividendYield,
	})
}
