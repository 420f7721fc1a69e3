package pricing

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/contactkeval/option-pricer/internal/testutil"
)

var refParams = Params{
	Underlying:    100,
	Strike:        110,
	Volatility:    0.2,
	RiskFreeRate:  0.05,
	TimeToExpiry:  0.5,
	DividendYield: 0.02,
}

func TestBlackScholesCallReference(t *testing.T) {
	call, err := BlackScholesCall(100.0, 110.0, 0.2, 0.05, 0.5, 0.02)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertClose(t, "call", call, 2.586, 1e-3)
}

func TestBlackScholesPutReference(t *testing.T) {
	put, err := BlackScholesPut(100.0, 110.0, 0.2, 0.05, 0.5, 0.02)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertClose(t, "put", put, 10.865, 1e-3)
}

// With r = q = 0 and S = K the call is S*(2N(v√t/2) - 1).
func TestTextbookZeroRates(t *testing.T) {
	p := Params{Underlying: 100, Strike: 100, Volatility: 0.2, TimeToExpiry: 1}

	call, err := Default().Call(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	put, err := Default().Put(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertClose(t, "call", call, 7.965567455405804, 1e-9)
	testutil.AssertClose(t, "put", put, 7.965567455405804, 1e-9)
}

// Hull, Options Futures and Other Derivatives, example 15.6.
func TestHullExample(t *testing.T) {
	p := Params{Underlying: 42, Strike: 40, Volatility: 0.2, RiskFreeRate: 0.1, TimeToExpiry: 0.5}

	call, _ := Default().Call(p)
	put, _ := Default().Put(p)

	testutil.AssertClose(t, "call", call, 4.7594, 2e-3)
	testutil.AssertClose(t, "put", put, 0.8086, 2e-3)
}

func TestDeriveTerms(t *testing.T) {
	terms := Derive(refParams)

	testutil.AssertClose(t, "df", terms.Discount, math.Exp(-0.025), 1e-15)
	testutil.AssertClose(t, "forward", terms.Forward, 100*math.Exp(0.015), 1e-12)
	testutil.AssertClose(t, "std", terms.StdDev, 0.2*math.Sqrt(0.5), 1e-15)
	testutil.AssertClose(t, "spot pv", terms.SpotPV, terms.Discount*terms.Forward, 1e-12)
	testutil.AssertClose(t, "strike pv", terms.StrikePV, terms.Discount*110, 1e-12)
	testutil.AssertClose(t, "d2", terms.D2, terms.D1-terms.StdDev, 1e-15)
	if terms.Degenerate() {
		t.Fatalf("expected non-degenerate terms")
	}
}

func priceGrid() []Params {
	var out []Params
	for _, s := range []float64{50, 100, 200} {
		for _, k := range []float64{10, 100, 1000} {
			for _, v := range []float64{0.01, 0.3, 2} {
				for _, tt := range []float64{0.01, 1, 10} {
					for _, r := range []float64{-0.01, 0.05} {
						for _, q := range []float64{0, 0.03} {
							out = append(out, Params{
								Underlying:    s,
								Strike:        k,
								Volatility:    v,
								RiskFreeRate:  r,
								TimeToExpiry:  tt,
								DividendYield: q,
							})
						}
					}
				}
			}
		}
	}
	return out
}

func TestPutCallParity(t *testing.T) {
	for _, p := range priceGrid() {
		call, err := Default().Call(p)
		if err != nil {
			t.Fatalf("%+v: %v", p, err)
		}
		put, err := Default().Put(p)
		if err != nil {
			t.Fatalf("%+v: %v", p, err)
		}
		testutil.AssertRelClose(t, "parity", call-put, ParityValue(p), 1e-6)
	}
}

func TestNoArbitrageBounds(t *testing.T) {
	const eps = 1e-9
	for _, p := range priceGrid() {
		terms := Derive(p)
		call, _ := Default().Call(p)
		put, _ := Default().Put(p)

		if call < -eps || put < -eps {
			t.Fatalf("%+v: negative premium call=%g put=%g", p, call, put)
		}
		if call < terms.Discount*(terms.Forward-p.Strike)-eps || call > terms.Discount*terms.Forward+eps {
			t.Fatalf("%+v: call %g outside bounds", p, call)
		}
		if put < terms.Discount*(p.Strike-terms.Forward)-eps || put > terms.Discount*p.Strike+eps {
			t.Fatalf("%+v: put %g outside bounds", p, put)
		}
	}
}

func TestMonotoneInUnderlying(t *testing.T) {
	p := refParams
	prevCall, prevPut := -1.0, math.Inf(1)

	for s := 50.0; s <= 150.0; s += 0.5 {
		p.Underlying = s
		call, _ := Default().Call(p)
		put, _ := Default().Put(p)

		if call < prevCall-1e-12 {
			t.Fatalf("call decreased at S=%.1f: %g < %g", s, call, prevCall)
		}
		if put > prevPut+1e-12 {
			t.Fatalf("put increased at S=%.1f: %g > %g", s, put, prevPut)
		}
		prevCall, prevPut = call, put
	}
}

func TestZeroVolatilityUsesDiscountedIntrinsic(t *testing.T) {
	tests := []struct {
		name   string
		strike float64
	}{
		{"forward above strike", 90},
		{"forward below strike", 120},
		{"spot at strike", 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := Params{Underlying: 100, Strike: test.strike, RiskFreeRate: 0.05, TimeToExpiry: 1, DividendYield: 0.02}
			df := math.Exp(-0.05)
			fwd := 100 * math.Exp(0.03)

			call, err := Default().Call(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			put, err := Default().Put(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertClose(t, "call", call, df*math.Max(fwd-test.strike, 0), 1e-12)
			testutil.AssertClose(t, "put", put, df*math.Max(test.strike-fwd, 0), 1e-12)
			if !Derive(p).Degenerate() {
				t.Fatalf("expected degenerate terms for zero volatility")
			}
		})
	}
}

func TestZeroTimeIsUndiscountedIntrinsic(t *testing.T) {
	p := Params{Underlying: 100, Strike: 90, Volatility: 0.3, RiskFreeRate: 0.05, DividendYield: 0.02}

	call, _ := Default().Call(p)
	put, _ := Default().Put(p)
	if call != 10 || put != 0 {
		t.Fatalf("expected call=10 put=0 at expiry, got call=%g put=%g", call, put)
	}
	if DiscountedIntrinsic(Call, p) != 10 {
		t.Fatalf("expected intrinsic 10, got %g", DiscountedIntrinsic(Call, p))
	}
}

func TestConvergesAsTimeShrinks(t *testing.T) {
	for _, k := range []float64{80, 100, 120} {
		p := Params{Underlying: 100, Strike: k, Volatility: 0.2, RiskFreeRate: 0.05, TimeToExpiry: 1e-10, DividendYield: 0.02}

		call, _ := Default().Call(p)
		put, _ := Default().Put(p)

		testutil.AssertClose(t, "call", call, math.Max(100-k, 0), 1e-3)
		testutil.AssertClose(t, "put", put, math.Max(k-100, 0), 1e-3)
	}
}

func TestConvergesAsVolatilityShrinks(t *testing.T) {
	for _, k := range []float64{80, 120} {
		p := Params{Underlying: 100, Strike: k, Volatility: 1e-9, RiskFreeRate: 0.05, TimeToExpiry: 1, DividendYield: 0.02}

		call, _ := Default().Call(p)
		put, _ := Default().Put(p)

		zeroVol := p
		zeroVol.Volatility = 0
		testutil.AssertClose(t, "call", call, DiscountedIntrinsic(Call, zeroVol), 1e-9)
		testutil.AssertClose(t, "put", put, DiscountedIntrinsic(Put, zeroVol), 1e-9)
	}
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"zero spot", func(p *Params) { p.Underlying = 0 }, "underlying_price"},
		{"negative spot", func(p *Params) { p.Underlying = -1 }, "underlying_price"},
		{"zero strike", func(p *Params) { p.Strike = 0 }, "strike_price"},
		{"negative strike", func(p *Params) { p.Strike = -110 }, "strike_price"},
		{"negative volatility", func(p *Params) { p.Volatility = -0.2 }, "volatility"},
		{"negative time", func(p *Params) { p.TimeToExpiry = -0.5 }, "time_to_expiry"},
		{"nan rate", func(p *Params) { p.RiskFreeRate = math.NaN() }, "risk_free_rate"},
		{"infinite dividend", func(p *Params) { p.DividendYield = math.Inf(-1) }, "dividend_yield"},
		{"infinite spot", func(p *Params) { p.Underlying = math.Inf(1) }, "underlying_price"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := refParams
			test.mutate(&p)

			for _, kind := range []OptionType{Call, Put} {
				price, err := Default().Price(kind, p)
				if !errors.Is(err, ErrInvalidParameter) {
					t.Fatalf("%s: expected ErrInvalidParameter, got price=%g err=%v", kind, price, err)
				}
				var pe *ParamError
				if !errors.As(err, &pe) || pe.Name != test.field {
					t.Fatalf("%s: expected ParamError on %s, got %v", kind, test.field, err)
				}
			}
		})
	}
}

func TestPriceRejectsUnknownKind(t *testing.T) {
	if _, err := Default().Price(OptionType("straddle"), refParams); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestNegativeRatesAreValid(t *testing.T) {
	p := refParams
	p.RiskFreeRate = -0.01
	p.DividendYield = -0.005

	if _, err := Default().Call(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLargeRateTimeStaysFinite(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"long expiry", Params{Underlying: 100, Strike: 110, Volatility: 0.2, RiskFreeRate: 0.05, TimeToExpiry: 20000}},
		{"high rate", Params{Underlying: 100, Strike: 110, Volatility: 0.2, RiskFreeRate: 800, TimeToExpiry: 1}},
		{"high rate with dividend", Params{Underlying: 100, Strike: 110, Volatility: 0.2, RiskFreeRate: 800, TimeToExpiry: 1, DividendYield: 0.03}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			call, err := Default().Call(test.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			put, err := Default().Put(test.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.IsNaN(call) || math.IsInf(call, 0) || math.IsNaN(put) || math.IsInf(put, 0) {
				t.Fatalf("expected finite prices, got call=%g put=%g", call, put)
			}

			// the strike's present value underflows; the call is worth the dividend-adjusted spot
			spotPV := test.p.Underlying * math.Exp(-test.p.DividendYield*test.p.TimeToExpiry)
			testutil.AssertClose(t, "call", call, spotPV, 1e-9)
			testutil.AssertClose(t, "put", put, 0, 1e-9)
			testutil.AssertClose(t, "parity", call-put, ParityValue(test.p), 1e-9)
		})
	}
}

func TestPricerUsesSuppliedCDF(t *testing.T) {
	calls := 0
	counting := func(z float64) float64 {
		calls++
		return ErfCDF(z)
	}
	pr := NewPricer(counting)

	got, err := pr.Call(refParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Default().Call(refParams)

	if calls != 2 {
		t.Fatalf("expected 2 CDF evaluations, got %d", calls)
	}
	testutil.AssertClose(t, "call", got, want, 1e-12)
}

func TestNilCDFFallsBackToNormCDF(t *testing.T) {
	got, _ := NewPricer(nil).Put(refParams)
	want, _ := Default().Put(refParams)
	if got != want {
		t.Fatalf("expected %g, got %g", want, got)
	}
}

func TestConcurrentPricing(t *testing.T) {
	want, _ := Default().Call(refParams)

	var wg sync.WaitGroup
	errs := make(chan float64, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := Default().Call(refParams)
			if got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Fatalf("concurrent call returned %g, expected %g", got, want)
	}
}
