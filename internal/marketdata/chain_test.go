package marketdata

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dca-backtest-lab/internal/domain"
)

// stubProvider returns a fixed series or error and records call counts.
type stubProvider struct {
	name   string
	series domain.PriceSeries
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) DailyCloses(_ context.Context, _ string, _, _ time.Time) (domain.PriceSeries, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func someSeries() domain.PriceSeries {
	return domain.PriceSeries{
		{Date: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), Close: 100},
		{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Close: 101},
	}
}

func TestChainFirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "first", series: someSeries()}
	second := &stubProvider{name: "second", series: someSeries()}

	chain := NewChainProvider(nil, first, second)

	series, err := chain.DailyCloses(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("DailyCloses: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d points", len(series))
	}
	if second.calls != 0 {
		t.Error("second provider should not be tried when the first succeeds")
	}
}

func TestChainFallsBack(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("rate limited")}
	second := &stubProvider{name: "second", series: someSeries()}

	chain := NewChainProvider(nil, first, second)

	series, err := chain.DailyCloses(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("DailyCloses: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d points", len(series))
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("rate limited")}
	second := &stubProvider{name: "second", err: ErrNoData}

	chain := NewChainProvider(nil, first, second)

	_, err := chain.DailyCloses(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
	// Each source's failure is named for debugging.
	if !strings.Contains(err.Error(), "first") || !strings.Contains(err.Error(), "second") {
		t.Errorf("error %q should mention both providers", err)
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := &stubProvider{name: "first", err: errors.New("slow upstream")}
	second := &stubProvider{name: "second", series: someSeries()}

	chain := NewChainProvider(nil, first, second)

	cancel()
	_, err := chain.DailyCloses(ctx, "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if second.calls != 0 {
		t.Error("canceled context should stop the chain")
	}
}
