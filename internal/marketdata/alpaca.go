package marketdata

import (
	"context"
	"fmt"
	"time"

	alpaca "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"dca-backtest-lab/internal/domain"
)

// alpacaBarsClient is the slice of the Alpaca SDK used here, extracted so
// tests can stub it.
type alpacaBarsClient interface {
	GetBars(symbol string, req alpaca.GetBarsRequest) ([]alpaca.Bar, error)
}

// AlpacaProvider fetches daily closes from the Alpaca market data API.
// It only serves US listings.
type AlpacaProvider struct {
	client alpacaBarsClient
	feed   alpaca.Feed
}

// NewAlpacaProvider creates an Alpaca daily bars provider.
func NewAlpacaProvider(apiKey, apiSecret string) *AlpacaProvider {
	return &AlpacaProvider{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: alpaca.IEX,
	}
}

var _ Provider = (*AlpacaProvider)(nil)

// Name identifies the provider in logs and metrics.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// DailyCloses fetches 1-day bars for [start, end] inclusive.
func (p *AlpacaProvider) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := p.client.GetBars(symbol, alpaca.GetBarsRequest{
		TimeFrame: alpaca.OneDay,
		Start:     domain.NormalizeDate(start),
		End:       domain.NormalizeDate(end).AddDate(0, 0, 1),
		Feed:      p.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca get bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: symbol %s", ErrNoData, symbol)
	}

	series := make(domain.PriceSeries, 0, len(bars))
	for _, b := range bars {
		series = append(series, domain.PricePoint{
			Date:  domain.NormalizeDate(b.Timestamp),
			Close: b.Close,
		})
	}
	return series, nil
}
