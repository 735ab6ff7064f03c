package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/storage"
)

func newTestStore(t *testing.T) *TickerStore {
	t.Helper()

	store, err := NewTickerStore(filepath.Join(t.TempDir(), "tickers.db"))
	if err != nil {
		t.Fatalf("NewTickerStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTickerStore_InsertAndGetBySymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Ticker{Name: "Apple Inc", Market: domain.MarketUS, Symbol: "AAPL"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, domain.MarketUS, "AAPL")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if got.Name != "Apple Inc" || got.Market != domain.MarketUS {
		t.Errorf("got %+v", got)
	}
}

func TestTickerStore_InsertDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tk := &domain.Ticker{Name: "Apple Inc", Market: domain.MarketUS, Symbol: "AAPL"}
	if err := store.Insert(ctx, tk); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, tk); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("second Insert: got %v, want ErrDuplicateKey", err)
	}
}

func TestTickerStore_GetBySymbolNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBySymbol(context.Background(), domain.MarketUS, "NOPE")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestTickerStore_InsertBulkSkipsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Ticker{Name: "Apple Inc", Market: domain.MarketUS, Symbol: "AAPL"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.InsertBulk(ctx, []*domain.Ticker{
		{Name: "Apple Inc", Market: domain.MarketUS, Symbol: "AAPL"},
		{Name: "Microsoft", Market: domain.MarketUS, Symbol: "MSFT"},
		{Name: "Kweichow Moutai", Market: domain.MarketAShare, Symbol: "600519"},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
}

func TestTickerStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertBulk(ctx, []*domain.Ticker{
		{Name: "Apple Inc", Market: domain.MarketUS, Symbol: "AAPL"},
		{Name: "Applied Materials", Market: domain.MarketUS, Symbol: "AMAT"},
		{Name: "Microsoft", Market: domain.MarketUS, Symbol: "MSFT"},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.Search(ctx, "APPL", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "AAPL" || got[1].Symbol != "AMAT" {
		t.Fatalf("search = %v", got)
	}

	got, err = store.Search(ctx, "msft", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Microsoft" {
		t.Fatalf("symbol search = %v", got)
	}
}
