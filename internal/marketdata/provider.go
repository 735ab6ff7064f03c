// Package marketdata retrieves daily close series for listed tickers.
//
// Retrieval is layered: a cached provider sits in front of a fallback chain
// of upstream sources, so a symbol is served from the local store when
// possible and fetched remotely otherwise.
package marketdata

import (
	"context"
	"errors"
	"time"

	"dca-backtest-lab/internal/domain"
)

// Provider errors.
var (
	// ErrNoData is returned when the upstream has no usable prices for the
	// requested symbol and range.
	ErrNoData = errors.New("no price data")

	// ErrAllProvidersFailed is returned by the fallback chain when every
	// configured source failed.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// Provider fetches the daily close series for a symbol within [start, end]
// inclusive. Implementations return dates normalized to UTC midnight, in
// ascending order, and ErrNoData when the range holds no usable prices.
type Provider interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
