package storage

import (
	"context"
	"time"

	"dca-backtest-lab/internal/domain"
)

// TickerStore provides access to the ticker catalog used by symbol search.
type TickerStore interface {
	// Insert adds a new ticker. Returns ErrDuplicateKey if (market, symbol) exists.
	Insert(ctx context.Context, t *domain.Ticker) error

	// InsertBulk adds multiple tickers, skipping ones that already exist.
	// Returns the number actually inserted.
	InsertBulk(ctx context.Context, tickers []*domain.Ticker) (int, error)

	// Search retrieves up to limit tickers whose name or symbol contains the
	// query, case-insensitive, ordered by symbol ASC.
	Search(ctx context.Context, query string, limit int) ([]*domain.Ticker, error)

	// GetBySymbol retrieves a ticker by market and symbol. Returns ErrNotFound
	// if not exists.
	GetBySymbol(ctx context.Context, market domain.Market, symbol string) (*domain.Ticker, error)
}

// PriceHistoryStore caches daily close series fetched from upstream providers.
type PriceHistoryStore interface {
	// InsertBulk adds points for a symbol. Existing (symbol, date) rows may be
	// overwritten; the cache is not append-only.
	InsertBulk(ctx context.Context, symbol string, points []domain.PricePoint) error

	// GetByRange retrieves points for a symbol within [start, end] inclusive,
	// ordered by date ASC. An empty result is not an error.
	GetByRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}
