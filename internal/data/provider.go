// Package data supplies underlying spot prices to the pricing engine.
//
// Providers can be chained: when one cannot answer for a symbol it asks its
// secondary provider, if any.
package data

import (
	"context"
	"errors"
	"strings"
)

// ErrNoSpot is returned when no provider in a chain knows the symbol.
var ErrNoSpot = errors.New("no spot price available")

// Provider supplies spot prices for underlyings.
type Provider interface {
	Secondary() Provider
	Spot(ctx context.Context, underlying string) (float64, error)
}

// normalizeSymbol upper-cases and trims a ticker so lookups are
// insensitive to how the job file spelled it.
func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// delegate asks p's secondary for the spot, or returns ErrNoSpot.
func delegate(ctx context.Context, p Provider, underlying string) (float64, error) {
	if sec := p.Secondary(); sec != nil {
		return sec.Spot(ctx, underlying)
	}
	return 0, ErrNoSpot
}
