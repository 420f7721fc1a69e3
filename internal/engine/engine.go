// Package engine prices the contracts of a job by resolving each one to
// the six Black-Scholes inputs and calling the pricing core once per
// contract.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// Engine prices the contracts of one job against a spot provider.
type Engine struct {
	cfg    *config.Config
	prov   data.Provider
	pricer *pricing.Pricer
	now    func() time.Time
}

// Quote is the outcome of pricing one contract.
type Quote struct {
	ID         string             `json:"id"`
	Underlying string             `json:"underlying,omitempty"`
	OptionType pricing.OptionType `json:"option_type"`
	Params     pricing.Params     `json:"params"`
	Premium    float64            `json:"premium"`
	Forward    float64            `json:"forward"`
	Discount   float64            `json:"discount_factor"`
	Boundary   bool               `json:"boundary"` // zero v*sqrt(t): intrinsic value path
	Error      string             `json:"error,omitempty"`
}

// Result aggregates a batch run.
type Result struct {
	AsOf     time.Time `json:"as_of"`
	Quotes   []Quote   `json:"quotes"`
	Priced   int       `json:"priced"`
	Failed   int       `json:"failed"`
	Boundary int       `json:"boundary"`
}

// NewEngine returns an engine pricing cfg's contracts with the default
// pricer. prov may be nil when every contract carries its own spot.
func NewEngine(cfg *config.Config, prov data.Provider) *Engine {
	return &Engine{cfg: cfg, prov: prov, pricer: pricing.Default(), now: time.Now}
}

// WithPricer swaps the pricer, e.g. to compare normal CDF implementations.
func (e *Engine) WithPricer(p *pricing.Pricer) *Engine {
	e.pricer = p
	return e
}

// Run prices every contract in the job. A contract that cannot be priced
// is recorded in its Quote and does not stop the batch; cancelling ctx
// does, and the partial result is returned with ctx's error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if len(e.cfg.Contracts) == 0 {
		return nil, config.ErrNoContracts
	}

	res := &Result{AsOf: e.cfg.AsOfDate(e.now())}
	logger.Infof("pricing %d contracts as of %s", len(e.cfg.Contracts), res.AsOf.Format(config.DateLayout))

	for _, ct := range e.cfg.Contracts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		q, err := e.Quote(ctx, ct)
		if err != nil {
			logger.Errorf("contract %s: %v", ct.Label(), err)
			res.Failed++
		} else {
			res.Priced++
			if q.Boundary {
				res.Boundary++
			}
		}
		res.Quotes = append(res.Quotes, q)
	}

	logger.Infof("priced %d, failed %d, boundary %d", res.Priced, res.Failed, res.Boundary)
	return res, nil
}

// Quote resolves ct against the job defaults and the spot provider and
// prices it. On failure the returned Quote carries the error text.
func (e *Engine) Quote(ctx context.Context, ct config.Contract) (Quote, error) {
	q := Quote{ID: ct.Label(), Underlying: ct.Underlying}

	fail := func(err error) (Quote, error) {
		q.Error = err.Error()
		return q, err
	}

	kind, err := pricing.ParseOptionType(ct.OptionType)
	if err != nil {
		return fail(err)
	}
	q.OptionType = kind

	params, err := e.resolve(ctx, ct)
	if err != nil {
		return fail(err)
	}
	q.Params = params

	premium, err := e.pricer.Price(kind, params)
	if err != nil {
		return fail(err)
	}

	terms := pricing.Derive(params)
	q.Premium = premium
	q.Forward = terms.Forward
	q.Discount = terms.Discount
	q.Boundary = terms.Degenerate()

	logger.Debugf("%s %s K=%.4f S=%.4f premium=%.6f", q.ID, kind, params.Strike, params.Underlying, premium)
	logger.Tracef("%s df=%.8f F=%.6f std=%.8f d1=%.6f d2=%.6f", q.ID, terms.Discount, terms.Forward, terms.StdDev, terms.D1, terms.D2)
	return q, nil
}

func (e *Engine) resolve(ctx context.Context, ct config.Contract) (pricing.Params, error) {
	d := e.cfg.Defaults
	p := pricing.Params{
		Strike:        ct.Strike,
		RiskFreeRate:  orDefault(ct.RiskFreeRate, d.RiskFreeRate),
		DividendYield: orDefault(ct.DividendYield, d.DividendYield),
	}

	vol := ct.Volatility
	if vol == nil {
		vol = d.Volatility
	}
	if vol == nil {
		return p, fmt.Errorf("%w: volatility is set neither on the contract nor in defaults", pricing.ErrInvalidParameter)
	}
	p.Volatility = *vol

	spot, err := e.spot(ctx, ct)
	if err != nil {
		return p, err
	}
	p.Underlying = spot

	years, err := e.years(ct)
	if err != nil {
		return p, err
	}
	p.TimeToExpiry = years
	return p, nil
}

func (e *Engine) spot(ctx context.Context, ct config.Contract) (float64, error) {
	if ct.Spot != nil {
		return *ct.Spot, nil
	}
	if ct.Underlying == "" {
		return 0, errors.New("either spot or underlying is required")
	}
	if e.prov == nil {
		return 0, fmt.Errorf("%s: %w", ct.Underlying, data.ErrNoSpot)
	}

	spot, err := e.prov.Spot(ctx, ct.Underlying)
	if err != nil {
		return 0, fmt.Errorf("spot for %s: %w", ct.Underlying, err)
	}
	return spot, nil
}

func (e *Engine) years(ct config.Contract) (float64, error) {
	if ct.TimeToExpiry != nil {
		return *ct.TimeToExpiry, nil
	}

	expiry, err := time.Parse(config.DateLayout, ct.Expiry)
	if err != nil {
		return 0, fmt.Errorf("expiry %q: %w", ct.Expiry, err)
	}
	asOf := e.cfg.AsOfDate(e.now())
	return pricing.YearsToExpiry(expiry.Sub(asOf)), nil
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
