package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/marketdata"
	"dca-backtest-lab/internal/storage/memory"
)

// fakeProvider serves canned series keyed by provider symbol.
type fakeProvider struct {
	series map[string]domain.PriceSeries
	err    error
}

func (f *fakeProvider) DailyCloses(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	var out domain.PriceSeries
	for _, p := range s {
		if !p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, marketdata.ErrNoData
	}
	return out, nil
}

func (f *fakeProvider) Name() string { return "fake" }

// dailySeries builds n consecutive daily closes at a constant price.
func dailySeries(t *testing.T, first string, n int, price float64) domain.PriceSeries {
	t.Helper()
	start, err := time.Parse(domain.DateLayout, first)
	if err != nil {
		t.Fatalf("parse %s: %v", first, err)
	}
	series := make(domain.PriceSeries, 0, n)
	for i := 0; i < n; i++ {
		series = append(series, domain.PricePoint{Date: start.AddDate(0, 0, i), Close: price})
	}
	return series
}

func newTestServer(t *testing.T, provider marketdata.Provider) *httptest.Server {
	t.Helper()
	tickers := memory.NewTickerStore()
	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewServer(tickers, provider, "", logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body map[string]string
	if code := getJSON(t, srv.URL+"/api/health", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body map[string]string
	if code := getJSON(t, srv.URL+"/api/search", &body); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body["detail"] == "" {
		t.Error("expected a detail message")
	}
}

func TestSearchHitsCatalog(t *testing.T) {
	tickers := memory.NewTickerStore()
	if err := tickers.Insert(context.Background(), &domain.Ticker{
		Name: "Nvidia Corporation", Market: domain.MarketUS, Symbol: "NVDA",
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewServer(tickers, &fakeProvider{}, "", logger).Handler())
	defer srv.Close()

	var results []tickerJSON
	if code := getJSON(t, srv.URL+"/api/search?q=nvidia", &results); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(results) != 1 || results[0].Code != "NVDA" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchFallsBackToBuiltins(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var results []tickerJSON
	if code := getJSON(t, srv.URL+"/api/search?q=apple", &results); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(results) != 1 || results[0].Code != "AAPL" {
		t.Fatalf("expected built-in AAPL match, got %+v", results)
	}
}

func TestDataReturnsCloses(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{
		"AAPL": dailySeries(t, "2024-01-01", 10, 150),
	}}
	srv := newTestServer(t, provider)

	var points []pricePointJSON
	url := srv.URL + "/api/data/US/AAPL?start_date=2024-01-01&end_date=2024-01-05"
	if code := getJSON(t, url, &points); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if points[0].Date != "2024-01-01" || points[0].Close != 150 {
		t.Errorf("unexpected first point: %+v", points[0])
	}
}

func TestDataUnknownSymbolIs404(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body map[string]string
	url := srv.URL + "/api/data/US/NOPE?start_date=2024-01-01&end_date=2024-02-01"
	if code := getJSON(t, url, &body); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if !strings.Contains(body["detail"], "NOPE") {
		t.Errorf("detail should name the symbol: %q", body["detail"])
	}
}

func TestDataBadDatesAre400(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	cases := []string{
		"start_date=01/01/2024&end_date=2024-02-01",
		"start_date=2024-01-01&end_date=never",
		"start_date=2024-02-01&end_date=2024-01-01",
	}
	for _, qs := range cases {
		if code := getJSON(t, srv.URL+"/api/data/US/AAPL?"+qs, nil); code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", qs, code)
		}
	}
}

func TestBacktestSingle(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{
		"AAPL": dailySeries(t, "2024-01-15", 60, 20),
	}}
	srv := newTestServer(t, provider)

	req := map[string]any{
		"market":     "US",
		"stock_code": "AAPL",
		"start_date": "2024-01-15",
		"end_date":   "2024-12-31",
	}
	var result domain.BacktestResult
	if code := postJSON(t, srv.URL+"/api/backtest", req, &result); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	// Defaults of 10000 initial plus 1000 monthly over two schedule dates.
	if result.TotalInvested != 11000 {
		t.Errorf("expected invested 11000, got %v", result.TotalInvested)
	}
	if result.TotalInvestments != 2 {
		t.Errorf("expected 2 investments, got %d", result.TotalInvestments)
	}
	if result.TotalReturnPct != 0 {
		t.Errorf("constant price should yield 0%% return, got %v", result.TotalReturnPct)
	}
}

func TestBacktestNoDataIs404(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	req := map[string]any{
		"market":     "US",
		"stock_code": "GONE",
		"start_date": "2024-01-01",
		"end_date":   "2024-06-01",
	}
	var body map[string]string
	if code := postJSON(t, srv.URL+"/api/backtest", req, &body); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if body["detail"] == "" {
		t.Error("expected a detail message")
	}
}

func TestBacktestShortSeriesIs400(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{
		"AAPL": dailySeries(t, "2024-01-01", 10, 20),
	}}
	srv := newTestServer(t, provider)

	req := map[string]any{
		"market":     "US",
		"stock_code": "AAPL",
		"start_date": "2024-01-01",
		"end_date":   "2024-01-10",
	}
	if code := postJSON(t, srv.URL+"/api/backtest", req, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestBacktestMultipleCountValidation(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	one := []map[string]string{{"market": "US", "stock_code": "AAPL", "name": "Apple"}}
	req := map[string]any{"stocks": one, "start_date": "2024-01-01", "end_date": "2024-06-01"}
	if code := postJSON(t, srv.URL+"/api/backtest-multiple", req, nil); code != http.StatusBadRequest {
		t.Errorf("1 stock: expected 400, got %d", code)
	}

	six := make([]map[string]string, 6)
	for i := range six {
		six[i] = map[string]string{"market": "US", "stock_code": fmt.Sprintf("S%d", i), "name": "x"}
	}
	req["stocks"] = six
	if code := postJSON(t, srv.URL+"/api/backtest-multiple", req, nil); code != http.StatusBadRequest {
		t.Errorf("6 stocks: expected 400, got %d", code)
	}
}

func TestBacktestMultipleSkipsMissingAssets(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{
		"AAPL": dailySeries(t, "2024-01-01", 90, 20),
		"MSFT": dailySeries(t, "2024-01-01", 90, 40),
	}}
	srv := newTestServer(t, provider)

	req := map[string]any{
		"stocks": []map[string]string{
			{"market": "US", "stock_code": "AAPL", "name": "Apple"},
			{"market": "US", "stock_code": "MSFT", "name": "Microsoft"},
			{"market": "US", "stock_code": "GONE", "name": "Delisted"},
		},
		"start_date": "2024-01-01",
		"end_date":   "2024-03-30",
	}
	var result domain.MultiBacktestResult
	if code := postJSON(t, srv.URL+"/api/backtest-multiple", req, &result); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes after skipping, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].Code != "AAPL" || result.Outcomes[1].Code != "MSFT" {
		t.Errorf("outcomes out of order: %s, %s", result.Outcomes[0].Code, result.Outcomes[1].Code)
	}
	for _, o := range result.Outcomes {
		if o.Error != "" {
			t.Errorf("%s: unexpected error %q", o.Code, o.Error)
		}
		if o.Result == nil {
			t.Errorf("%s: missing result", o.Code)
		}
	}
}

func TestBacktestMultipleTooFewFetchedIs404(t *testing.T) {
	provider := &fakeProvider{series: map[string]domain.PriceSeries{
		"AAPL": dailySeries(t, "2024-01-01", 90, 20),
	}}
	srv := newTestServer(t, provider)

	req := map[string]any{
		"stocks": []map[string]string{
			{"market": "US", "stock_code": "AAPL", "name": "Apple"},
			{"market": "US", "stock_code": "GONE", "name": "Delisted"},
		},
		"start_date": "2024-01-01",
		"end_date":   "2024-03-30",
	}
	if code := postJSON(t, srv.URL+"/api/backtest-multiple", req, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/backtest", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
