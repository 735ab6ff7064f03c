package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu       sync.RWMutex
	bySymbol map[string]map[time.Time]float64
}

// NewPriceHistoryStore creates a new in-memory price history cache.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{bySymbol: make(map[string]map[time.Time]float64)}
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds points for a symbol, overwriting existing dates.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, symbol string, points []domain.PricePoint) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	closes, exists := s.bySymbol[symbol]
	if !exists {
		closes = make(map[time.Time]float64, len(points))
		s.bySymbol[symbol] = closes
	}
	for _, p := range points {
		closes[domain.NormalizeDate(p.Date)] = p.Close
	}
	return nil
}

// GetByRange retrieves points for a symbol within [start, end] inclusive,
// ordered by date ASC.
func (s *PriceHistoryStore) GetByRange(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	start = domain.NormalizeDate(start)
	end = domain.NormalizeDate(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var series domain.PriceSeries
	for d, c := range s.bySymbol[symbol] {
		if !d.Before(start) && !d.After(end) {
			series = append(series, domain.PricePoint{Date: d, Close: c})
		}
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}
