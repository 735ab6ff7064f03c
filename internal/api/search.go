package api

import (
	"net/http"
	"strings"

	"dca-backtest-lab/internal/observability"
)

const searchLimit = 10

// tickerJSON is the wire shape of a search result.
type tickerJSON struct {
	Name   string `json:"name"`
	Market string `json:"market"`
	Code   string `json:"code"`
}

// fallbackTickers is served when the catalog has no match or the store is
// unavailable, so the frontend stays usable on an empty database.
var fallbackTickers = []tickerJSON{
	{Name: "Apple Inc.", Market: "US", Code: "AAPL"},
	{Name: "Microsoft Corporation", Market: "US", Code: "MSFT"},
	{Name: "Amazon.com Inc.", Market: "US", Code: "AMZN"},
	{Name: "Alphabet Inc.", Market: "US", Code: "GOOGL"},
	{Name: "Tesla Inc.", Market: "US", Code: "TSLA"},
	{Name: "贵州茅台", Market: "A-Share", Code: "600519"},
	{Name: "中国平安", Market: "A-Share", Code: "601318"},
}

// handleSearch looks up tickers by name or code substring.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	observability.RecordTickerSearch()

	results, err := s.tickers.Search(r.Context(), q, searchLimit)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("ticker search failed: %v", err)
		}
		writeJSON(w, http.StatusOK, matchFallback(q))
		return
	}

	out := make([]tickerJSON, 0, len(results))
	for _, t := range results {
		out = append(out, tickerJSON{Name: t.Name, Market: string(t.Market), Code: t.Symbol})
	}
	if len(out) == 0 {
		out = matchFallback(q)
	}
	writeJSON(w, http.StatusOK, out)
}

// matchFallback filters the built-in list by the query.
func matchFallback(q string) []tickerJSON {
	q = strings.ToLower(q)
	out := make([]tickerJSON, 0, len(fallbackTickers))
	for _, t := range fallbackTickers {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Code), q) {
			out = append(out, t)
		}
	}
	return out
}
