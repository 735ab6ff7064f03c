package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dca-backtest-lab/internal/backtest"
	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/marketdata"
	"dca-backtest-lab/internal/observability"
)

// Default amounts applied when a request omits them.
const (
	defaultInitialInvestment = 10000
	defaultMonthlyInvestment = 1000
)

// backtestRequest is a single-asset backtest request.
type backtestRequest struct {
	Market            string  `json:"market"`
	StockCode         string  `json:"stock_code"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	InitialInvestment float64 `json:"initial_investment"`
	MonthlyInvestment float64 `json:"monthly_investment"`
}

// stockInfo identifies one asset in a multi-asset request.
type stockInfo struct {
	Market    string `json:"market"`
	StockCode string `json:"stock_code"`
	Name      string `json:"name"`
}

// multipleBacktestRequest is a multi-asset comparison request.
type multipleBacktestRequest struct {
	Stocks            []stockInfo `json:"stocks"`
	StartDate         string      `json:"start_date"`
	EndDate           string      `json:"end_date"`
	InitialInvestment float64     `json:"initial_investment"`
	MonthlyInvestment float64     `json:"monthly_investment"`
}

// handleBacktest fetches prices for one asset and runs the DCA simulation.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	applyAmountDefaults(&req.InitialInvestment, &req.MonthlyInvestment)

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbol := marketdata.ProviderSymbol(domain.Market(req.Market), req.StockCode)
	series, err := s.prices.DailyCloses(r.Context(), symbol, start, end)
	if err != nil {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no price data for %s in %s..%s: %v", symbol, req.StartDate, req.EndDate, err))
		return
	}

	began := time.Now()
	result, err := backtest.Run(series, req.InitialInvestment, req.MonthlyInvestment)
	observability.RecordBacktestRun("single", err, time.Since(began))
	if err != nil {
		writeError(w, backtestStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleBacktestMultiple fetches prices for 2 to 5 assets and runs the
// comparison. Assets whose data cannot be fetched are skipped, matching the
// single-asset behavior of reporting retrieval problems as 404.
func (s *Server) handleBacktestMultiple(w http.ResponseWriter, r *http.Request) {
	var req multipleBacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	applyAmountDefaults(&req.InitialInvestment, &req.MonthlyInvestment)

	if len(req.Stocks) < backtest.MinAssets {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at least %d stocks are required for comparison", backtest.MinAssets))
		return
	}
	if len(req.Stocks) > backtest.MaxAssets {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d stocks can be compared at once", backtest.MaxAssets))
		return
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assets := s.fetchAssets(r.Context(), req.Stocks, start, end)
	if len(assets) < backtest.MinAssets {
		writeError(w, http.StatusNotFound,
			"could not fetch enough stock data for comparison, check codes and date range")
		return
	}

	began := time.Now()
	result, err := backtest.RunMulti(assets, req.InitialInvestment, req.MonthlyInvestment, 0)
	observability.RecordBacktestRun("multi", err, time.Since(began))
	if err != nil {
		writeError(w, backtestStatus(err), err.Error())
		return
	}

	failures := 0
	for _, o := range result.Outcomes {
		if o.Error != "" {
			failures++
		}
	}
	observability.RecordMultiAssetOutcomes(len(result.Outcomes), failures)

	writeJSON(w, http.StatusOK, result)
}

// fetchAssets retrieves each asset's series, skipping ones that fail.
func (s *Server) fetchAssets(ctx context.Context, stocks []stockInfo, start, end time.Time) []domain.AssetSeries {
	assets := make([]domain.AssetSeries, 0, len(stocks))
	for _, stock := range stocks {
		symbol := marketdata.ProviderSymbol(domain.Market(stock.Market), stock.StockCode)
		series, err := s.prices.DailyCloses(ctx, symbol, start, end)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("skipping %s (%s): %v", stock.Name, symbol, err)
			}
			continue
		}
		assets = append(assets, domain.AssetSeries{
			Code:   stock.StockCode,
			Name:   stock.Name,
			Series: series,
		})
	}
	return assets
}

// backtestStatus maps engine errors to HTTP codes: input validation
// problems are the caller's fault, anything else is a server error.
func backtestStatus(err error) int {
	switch {
	case errors.Is(err, backtest.ErrEmptySeries),
		errors.Is(err, backtest.ErrMissingClose),
		errors.Is(err, backtest.ErrInsufficientData),
		errors.Is(err, backtest.ErrTooFewAssets),
		errors.Is(err, backtest.ErrTooManyAssets),
		errors.Is(err, backtest.ErrEmptyIntersection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func applyAmountDefaults(initial, monthly *float64) {
	if *initial == 0 {
		*initial = defaultInitialInvestment
	}
	if *monthly == 0 {
		*monthly = defaultMonthlyInvestment
	}
}

// parseDateRange validates the YYYY-MM-DD request bounds.
func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", startDate)
	}
	end, err := time.Parse(domain.DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", endDate)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date %s must be before end_date %s", startDate, endDate)
	}
	return start, end, nil
}
