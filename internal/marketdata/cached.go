package marketdata

import (
	"context"
	"log"
	"time"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/observability"
	"dca-backtest-lab/internal/storage"
)

// CachedProvider serves series from a PriceHistoryStore and falls back to an
// upstream provider on a cache miss, writing fetched series through.
//
// A cached range counts as a hit when it is non-empty and its first and last
// dates sit within a few days of the requested bounds; anything thinner is
// refetched. The slack absorbs weekends and holidays at the range edges.
type CachedProvider struct {
	upstream Provider
	store    storage.PriceHistoryStore
	logger   *log.Logger
}

// Trading pauses never exceed this many consecutive days at a range edge.
const edgeSlackDays = 7

// NewCachedProvider wraps upstream with a read-through cache.
func NewCachedProvider(upstream Provider, store storage.PriceHistoryStore, logger *log.Logger) *CachedProvider {
	return &CachedProvider{upstream: upstream, store: store, logger: logger}
}

var _ Provider = (*CachedProvider)(nil)

// Name identifies the provider in logs and metrics.
func (p *CachedProvider) Name() string { return "cached(" + p.upstream.Name() + ")" }

// DailyCloses returns the cached series when it covers the range, otherwise
// fetches upstream and stores the result.
func (p *CachedProvider) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	start = domain.NormalizeDate(start)
	end = domain.NormalizeDate(end)

	cached, err := p.store.GetByRange(ctx, symbol, start, end)
	hit := err == nil && covers(cached, start, end)
	observability.RecordCacheLookup(hit)
	if hit {
		return cached, nil
	}
	if err != nil && p.logger != nil {
		p.logger.Printf("price cache read failed for %s: %v", symbol, err)
	}

	series, err := p.upstream.DailyCloses(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if storeErr := p.store.InsertBulk(ctx, symbol, series); storeErr != nil && p.logger != nil {
		// Serving the fetched series matters more than caching it.
		p.logger.Printf("price cache write failed for %s: %v", symbol, storeErr)
	}

	return series, nil
}

// covers reports whether the cached series plausibly spans [start, end].
func covers(series domain.PriceSeries, start, end time.Time) bool {
	if len(series) == 0 {
		return false
	}
	first := series[0].Date
	last := series[len(series)-1].Date
	return !first.After(start.AddDate(0, 0, edgeSlackDays)) &&
		!last.Before(end.AddDate(0, 0, -edgeSlackDays))
}
