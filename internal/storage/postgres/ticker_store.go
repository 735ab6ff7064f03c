package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/observability"
	"dca-backtest-lab/internal/storage"
)

// TickerStore implements storage.TickerStore using PostgreSQL.
type TickerStore struct {
	pool *Pool
}

// NewTickerStore creates a new TickerStore.
func NewTickerStore(pool *Pool) *TickerStore {
	return &TickerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TickerStore = (*TickerStore)(nil)

// Insert adds a new ticker. Returns ErrDuplicateKey if (market, symbol) exists.
func (s *TickerStore) Insert(ctx context.Context, t *domain.Ticker) error {
	if t == nil || t.Symbol == "" || t.Market == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tickers (market, symbol, name)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, string(t.Market), t.Symbol, t.Name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ticker: %w", err)
	}
	return nil
}

// InsertBulk adds multiple tickers, skipping ones that already exist.
// Returns the number actually inserted.
func (s *TickerStore) InsertBulk(ctx context.Context, tickers []*domain.Ticker) (int, error) {
	query := `
		INSERT INTO tickers (market, symbol, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (market, symbol) DO NOTHING
	`

	inserted := 0
	for _, t := range tickers {
		if t == nil || t.Symbol == "" || t.Market == "" {
			return inserted, storage.ErrInvalidInput
		}
		tag, err := s.pool.Exec(ctx, query, string(t.Market), t.Symbol, t.Name)
		if err != nil {
			return inserted, fmt.Errorf("insert ticker %s: %w", t.Symbol, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Search retrieves up to limit tickers whose name or symbol contains the
// query, case-insensitive, ordered by symbol ASC.
func (s *TickerStore) Search(ctx context.Context, query string, limit int) ([]*domain.Ticker, error) {
	if limit <= 0 {
		limit = 10
	}

	sql := `
		SELECT market, symbol, name
		FROM tickers
		WHERE name ILIKE '%' || $1 || '%' OR symbol ILIKE '%' || $1 || '%'
		ORDER BY symbol ASC
		LIMIT $2
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, sql, query, limit)
	observability.RecordDBQuery("postgres", "search_tickers", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("search tickers: %w", err)
	}
	defer rows.Close()

	return scanTickers(rows)
}

// GetBySymbol retrieves a ticker by market and symbol. Returns ErrNotFound
// if not exists.
func (s *TickerStore) GetBySymbol(ctx context.Context, market domain.Market, symbol string) (*domain.Ticker, error) {
	query := `
		SELECT market, symbol, name
		FROM tickers
		WHERE market = $1 AND symbol = $2
	`

	row := s.pool.QueryRow(ctx, query, string(market), symbol)
	t, err := scanTicker(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ticker by symbol: %w", err)
	}
	return t, nil
}

// scanTicker scans a single row into a Ticker.
func scanTicker(row pgx.Row) (*domain.Ticker, error) {
	var t domain.Ticker
	var market string

	if err := row.Scan(&market, &t.Symbol, &t.Name); err != nil {
		return nil, err
	}
	t.Market = domain.Market(market)
	return &t, nil
}

// scanTickers scans multiple rows.
func scanTickers(rows pgx.Rows) ([]*domain.Ticker, error) {
	var tickers []*domain.Ticker

	for rows.Next() {
		t, err := scanTicker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}

	return tickers, nil
}
