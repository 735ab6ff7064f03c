package marketdata

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/observability"
)

// ChainProvider tries each configured provider in order and returns the
// first successful series. Every source failing yields ErrAllProvidersFailed
// wrapping the individual failures.
type ChainProvider struct {
	providers []Provider
	logger    *log.Logger
}

// NewChainProvider creates a fallback chain over the given providers.
func NewChainProvider(logger *log.Logger, providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers, logger: logger}
}

var _ Provider = (*ChainProvider)(nil)

// Name identifies the provider in logs and metrics.
func (p *ChainProvider) Name() string { return "chain" }

// DailyCloses tries each provider in order.
func (p *ChainProvider) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if len(p.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrAllProvidersFailed)
	}

	var failures []string
	for _, provider := range p.providers {
		began := time.Now()
		series, err := provider.DailyCloses(ctx, symbol, start, end)
		observability.RecordProviderRequest(provider.Name(), err == nil, time.Since(began))

		if err == nil {
			return series, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if p.logger != nil {
			p.logger.Printf("provider %s failed for %s: %v", provider.Name(), symbol, err)
		}
		failures = append(failures, fmt.Sprintf("%s: %v", provider.Name(), err))
	}

	return nil, fmt.Errorf("%w for %s: %s", ErrAllProvidersFailed, symbol, strings.Join(failures, "; "))
}
