package clickhouse

import (
	"context"
	"fmt"
	"time"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/observability"
	"dca-backtest-lab/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
//
// The table uses ReplacingMergeTree keyed by (symbol, date), so re-fetching
// a range simply overwrites the old rows. Reads use FINAL to collapse
// not-yet-merged duplicates.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds points for a symbol, overwriting existing dates.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, symbol string, points []domain.PricePoint) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (symbol, date, close)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(symbol, domain.NormalizeDate(p.Date), p.Close); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_price_history", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRange retrieves points for a symbol within [start, end] inclusive,
// ordered by date ASC.
func (s *PriceHistoryStore) GetByRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	query := `
		SELECT date, close
		FROM price_history FINAL
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol,
		domain.NormalizeDate(start), domain.NormalizeDate(end))
	observability.RecordDBQuery("clickhouse", "get_price_history", time.Since(began).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	return scanPriceHistory(rows)
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// scanPriceHistory scans multiple rows.
func scanPriceHistory(rows chRows) (domain.PriceSeries, error) {
	var series domain.PriceSeries

	for rows.Next() {
		var date time.Time
		var close float64

		if err := rows.Scan(&date, &close); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		series = append(series, domain.PricePoint{
			Date:  domain.NormalizeDate(date),
			Close: close,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return series, nil
}
