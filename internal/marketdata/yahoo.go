package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dca-backtest-lab/internal/domain"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Browser-like headers keep Yahoo's edge from rejecting the request.
const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// YahooProvider fetches daily closes from the Yahoo Finance v8 chart API.
type YahooProvider struct {
	baseURL string
	client  *http.Client
}

// YahooOption configures a YahooProvider.
type YahooOption func(*YahooProvider)

// WithYahooBaseURL overrides the API base URL. Tests point it at a local
// httptest server.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(p *YahooProvider) { p.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithYahooHTTPClient overrides the HTTP client.
func WithYahooHTTPClient(client *http.Client) YahooOption {
	return func(p *YahooProvider) { p.client = client }
}

// NewYahooProvider creates a Yahoo chart API provider.
func NewYahooProvider(opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		baseURL: defaultYahooBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ Provider = (*YahooProvider)(nil)

// Name identifies the provider in logs and metrics.
func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChartResponse mirrors the subset of the v8 chart payload we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses fetches 1d-interval closes for [start, end] inclusive.
func (p *YahooProvider) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	start = domain.NormalizeDate(start)
	// period2 is exclusive, so push it past the end date.
	period2 := domain.NormalizeDate(end).AddDate(0, 0, 1)

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=div,splits",
		p.baseURL, symbol, start.Unix(), period2.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read yahoo response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: symbol %s", ErrNoData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("parse yahoo json: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoData, chart.Chart.Error.Description, chart.Chart.Error.Code)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: symbol %s", ErrNoData, symbol)
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	var series domain.PriceSeries
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market holiday rows carry null closes
		}
		d := domain.NormalizeDate(time.Unix(ts, 0).UTC())
		if d.Before(start) || d.After(domain.NormalizeDate(end)) {
			continue
		}
		series = append(series, domain.PricePoint{Date: d, Close: *closes[i]})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: symbol %s in range", ErrNoData, symbol)
	}
	return series, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
