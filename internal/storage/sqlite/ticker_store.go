// Package sqlite implements the ticker catalog on a local SQLite file,
// for single-node deployments that do not run PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/storage"
)

// TickerStore implements storage.TickerStore backed by a SQLite database.
type TickerStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ storage.TickerStore = (*TickerStore)(nil)

// NewTickerStore opens (or creates) a SQLite database at dbPath, ensures
// the tickers table exists, and returns a ready-to-use TickerStore.
// Use ":memory:" for an ephemeral database.
func NewTickerStore(dbPath string) (*TickerStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tickers (
			market TEXT NOT NULL,
			symbol TEXT NOT NULL,
			name   TEXT NOT NULL,
			PRIMARY KEY (market, symbol)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tickers table: %w", err)
	}

	return &TickerStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *TickerStore) Close() error {
	return s.db.Close()
}

// Insert adds a new ticker. Returns ErrDuplicateKey if (market, symbol) exists.
func (s *TickerStore) Insert(ctx context.Context, t *domain.Ticker) error {
	if t == nil || t.Symbol == "" || t.Market == "" {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tickers (market, symbol, name) VALUES (?, ?, ?)
	`, string(t.Market), t.Symbol, t.Name)
	if err != nil {
		return fmt.Errorf("insert ticker: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert ticker rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// InsertBulk adds multiple tickers, skipping ones that already exist.
// Returns the number actually inserted.
func (s *TickerStore) InsertBulk(ctx context.Context, tickers []*domain.Ticker) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, t := range tickers {
		if t == nil || t.Symbol == "" || t.Market == "" {
			return inserted, storage.ErrInvalidInput
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO tickers (market, symbol, name) VALUES (?, ?, ?)
		`, string(t.Market), t.Symbol, t.Name)
		if err != nil {
			return inserted, fmt.Errorf("insert ticker %s: %w", t.Symbol, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("insert ticker rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// Search retrieves up to limit tickers whose name or symbol contains the
// query, case-insensitive, ordered by symbol ASC.
func (s *TickerStore) Search(ctx context.Context, query string, limit int) ([]*domain.Ticker, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT market, symbol, name
		FROM tickers
		WHERE LOWER(name) LIKE '%' || LOWER(?) || '%'
		   OR LOWER(symbol) LIKE '%' || LOWER(?) || '%'
		ORDER BY symbol ASC
		LIMIT ?
	`, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search tickers: %w", err)
	}
	defer rows.Close()

	var tickers []*domain.Ticker
	for rows.Next() {
		var t domain.Ticker
		var market string
		if err := rows.Scan(&market, &t.Symbol, &t.Name); err != nil {
			return nil, fmt.Errorf("scan ticker row: %w", err)
		}
		t.Market = domain.Market(market)
		tickers = append(tickers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker rows: %w", err)
	}
	return tickers, nil
}

// GetBySymbol retrieves a ticker by market and symbol. Returns ErrNotFound
// if not exists.
func (s *TickerStore) GetBySymbol(ctx context.Context, market domain.Market, symbol string) (*domain.Ticker, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT market, symbol, name FROM tickers WHERE market = ? AND symbol = ?
	`, string(market), symbol)

	var t domain.Ticker
	var m string
	if err := row.Scan(&m, &t.Symbol, &t.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ticker by symbol: %w", err)
	}
	t.Market = domain.Market(m)
	return &t, nil
}
