package data

import (
	"context"
	"fmt"

	massive "github.com/massive-com/client-go/v2/rest"
	"github.com/massive-com/client-go/v2/rest/models"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// aggsClient is the slice of the Massive REST client this provider uses.
type aggsClient interface {
	GetPreviousCloseAgg(
		ctx context.Context,
		params *models.GetPreviousCloseAggParams,
		options ...models.RequestOption,
	) (*models.GetPreviousCloseAggResponse, error)
}

// massiveProvider resolves spot prices to the previous session's adjusted
// close from Massive (formerly Polygon.io).
type massiveProvider struct {
	client    aggsClient
	secondary Provider
}

// NewMassiveProvider constructs a Massive-backed provider.
//
// Parameters:
//   - apiKey: Massive API key
//   - secondary: optional fallback used when Massive has no bar or the
//     request fails
func NewMassiveProvider(apiKey string, secondary Provider) Provider {
	logger.Infof("initializing Massive data provider")
	return &massiveProvider{
		client:    massive.New(apiKey),
		secondary: secondary,
	}
}

func (massiveProv *massiveProvider) Secondary() Provider {
	return massiveProv.secondary
}

// Spot returns the previous close for underlying.
func (massiveProv *massiveProvider) Spot(ctx context.Context, underlying string) (float64, error) {
	sym := normalizeSymbol(underlying)
	params := models.GetPreviousCloseAggParams{Ticker: sym}.WithAdjusted(true)

	logger.Debugf("requesting previous close for %s", sym)
	res, err := massiveProv.client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		if massiveProv.secondary != nil {
			logger.Errorf("massive previous close %s failed, using secondary: %v", sym, err)
			return massiveProv.secondary.Spot(ctx, underlying)
		}
		return 0, fmt.Errorf("massive previous close %s: %w", sym, err)
	}

	for _, agg := range res.Results {
		if agg.Close > 0 {
			logger.Tracef("massive spot %s=%.4f", sym, agg.Close)
			return agg.Close, nil
		}
	}

	logger.Debugf("massive returned no close for %s", sym)
	return delegate(ctx, massiveProv, underlying)
}
