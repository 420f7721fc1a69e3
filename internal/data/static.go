package data

import (
	"context"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// staticProvider serves spot prices fixed in the job file.
type staticProvider struct {
	spots     map[string]float64
	secondary Provider
}

// NewStaticProvider returns a Provider answering from spots and falling
// back to secondary (which may be nil) for unknown symbols.
func NewStaticProvider(spots map[string]float64, secondary Provider) Provider {
	norm := make(map[string]float64, len(spots))
	for sym, px := range spots {
		norm[normalizeSymbol(sym)] = px
	}
	return &staticProvider{spots: norm, secondary: secondary}
}

func (staticProv *staticProvider) Secondary() Provider {
	return staticProv.secondary
}

func (staticProv *staticProvider) Spot(ctx context.Context, underlying string) (float64, error) {
	if px, ok := staticProv.spots[normalizeSymbol(underlying)]; ok {
		logger.Tracef("static spot %s=%.4f", underlying, px)
		return px, nil
	}
	logger.Tracef("no static spot for %s, delegating", underlying)
	return delegate(ctx, staticProv, underlying)
}
