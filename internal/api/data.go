package api

import (
	"fmt"
	"net/http"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/marketdata"
)

// pricePointJSON is the wire shape of one daily close.
type pricePointJSON struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// handleData returns the raw daily close series for one asset.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	market := r.PathValue("market")
	code := r.PathValue("code")

	q := r.URL.Query()
	start, end, err := parseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbol := marketdata.ProviderSymbol(domain.Market(market), code)
	series, err := s.prices.DailyCloses(r.Context(), symbol, start, end)
	if err != nil {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no data found for %s in the requested range: %v", symbol, err))
		return
	}

	out := make([]pricePointJSON, 0, len(series))
	for _, p := range series {
		out = append(out, pricePointJSON{Date: domain.DateKey(p.Date), Close: p.Close})
	}
	writeJSON(w, http.StatusOK, out)
}
