// Package memory provides in-memory store implementations used by tests
// and by deployments that run without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/storage"
)

// TickerStore is an in-memory implementation of storage.TickerStore.
type TickerStore struct {
	mu    sync.RWMutex
	byKey map[tickerKey]*domain.Ticker
}

type tickerKey struct {
	market domain.Market
	symbol string
}

// NewTickerStore creates a new in-memory ticker store.
func NewTickerStore() *TickerStore {
	return &TickerStore{byKey: make(map[tickerKey]*domain.Ticker)}
}

var _ storage.TickerStore = (*TickerStore)(nil)

// Insert adds a new ticker. Returns ErrDuplicateKey if (market, symbol) exists.
func (s *TickerStore) Insert(_ context.Context, t *domain.Ticker) error {
	if t == nil || t.Symbol == "" || t.Market == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := tickerKey{t.Market, t.Symbol}
	if _, exists := s.byKey[k]; exists {
		return storage.ErrDuplicateKey
	}

	tCopy := *t
	s.byKey[k] = &tCopy
	return nil
}

// InsertBulk adds multiple tickers, skipping ones that already exist.
func (s *TickerStore) InsertBulk(_ context.Context, tickers []*domain.Ticker) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, t := range tickers {
		if t == nil || t.Symbol == "" || t.Market == "" {
			return inserted, storage.ErrInvalidInput
		}
		k := tickerKey{t.Market, t.Symbol}
		if _, exists := s.byKey[k]; exists {
			continue
		}
		tCopy := *t
		s.byKey[k] = &tCopy
		inserted++
	}
	return inserted, nil
}

// Search retrieves up to limit tickers whose name or symbol contains the
// query, case-insensitive, ordered by symbol ASC.
func (s *TickerStore) Search(_ context.Context, query string, limit int) ([]*domain.Ticker, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*domain.Ticker
	for _, t := range s.byKey {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Symbol), q) {
			tCopy := *t
			matches = append(matches, &tCopy)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Symbol < matches[j].Symbol })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetBySymbol retrieves a ticker by market and symbol. Returns ErrNotFound
// if not exists.
func (s *TickerStore) GetBySymbol(_ context.Context, market domain.Market, symbol string) (*domain.Ticker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byKey[tickerKey{market, symbol}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tCopy := *t
	return &tCopy, nil
}
