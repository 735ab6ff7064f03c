package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest-lab/internal/domain"
)

func pricePoint(y int, m time.Month, d int, close float64) domain.PricePoint {
	return domain.PricePoint{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Close: close}
}

func TestPriceHistoryStore_InsertAndGetByRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceHistoryStore(conn)

	err := store.InsertBulk(ctx, "AAPL", []domain.PricePoint{
		pricePoint(2024, time.March, 1, 180),
		pricePoint(2024, time.March, 4, 182),
		pricePoint(2024, time.March, 5, 181),
		pricePoint(2024, time.March, 6, 185),
	})
	require.NoError(t, err)

	series, err := store.GetByRange(ctx, "AAPL",
		time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, 182.0, series[0].Close)
	assert.Equal(t, 181.0, series[1].Close)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestPriceHistoryStore_OverwriteSameDate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceHistoryStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "MSFT", []domain.PricePoint{pricePoint(2024, time.May, 1, 400)}))
	require.NoError(t, store.InsertBulk(ctx, "MSFT", []domain.PricePoint{pricePoint(2024, time.May, 1, 405)}))

	series, err := store.GetByRange(ctx, "MSFT",
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.Equal(t, 405.0, series[0].Close)
}

func TestPriceHistoryStore_UnknownSymbolIsEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)

	series, err := store.GetByRange(context.Background(), "NOPE",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestPriceHistoryStore_SymbolsDoNotMix(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceHistoryStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "AAPL", []domain.PricePoint{pricePoint(2024, time.June, 3, 190)}))
	require.NoError(t, store.InsertBulk(ctx, "600519.SS", []domain.PricePoint{pricePoint(2024, time.June, 3, 1700)}))

	series, err := store.GetByRange(ctx, "600519.SS",
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.Equal(t, 1700.0, series[0].Close)
}
