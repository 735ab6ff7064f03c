// Package backtest implements the dollar-cost-averaging simulation engine:
// purchase-date scheduling, day-by-day portfolio accumulation, performance
// analysis, and multi-asset coordination over a shared trading calendar.
//
// The engine is a pure function of its inputs. It performs no I/O and holds
// no process-wide state; price retrieval and serialization belong to the
// callers.
package backtest

import (
	"fmt"
	"math"

	"dca-backtest-lab/internal/domain"
)

// MinSeriesLength is the minimum number of price points required to run
// a backtest.
const MinSeriesLength = 30

// Run executes a single-asset DCA backtest over the given price series.
// The series must be sorted ascending by date with no duplicates; the
// initial amount is invested on the first trading date and the monthly
// amount on the first trading date at or after each subsequent monthly
// target.
//
// Validation happens eagerly: an empty series, a point without a usable
// close, or a series shorter than MinSeriesLength fails before any
// simulation runs.
func Run(series domain.PriceSeries, initial, monthly float64) (*domain.BacktestResult, error) {
	if err := validateSeries(series); err != nil {
		return nil, err
	}
	return runScheduled(series, BuildSchedule(series.Dates()), initial, monthly)
}

// runScheduled runs the simulate/analyze pipeline against a prebuilt
// schedule. The multi-asset coordinator uses it to apply one shared
// schedule to every asset.
func runScheduled(series domain.PriceSeries, sched *Schedule, initial, monthly float64) (*domain.BacktestResult, error) {
	points, err := simulate(series, sched, initial, monthly)
	if err != nil {
		return nil, err
	}

	perf := analyze(points)

	equity := make(map[string]float64, len(points))
	for _, p := range points {
		equity[domain.DateKey(p.Date)] = p.Total
	}

	investmentDates := make([]string, sched.Len())
	for i, d := range sched.Dates() {
		investmentDates[i] = domain.DateKey(d)
	}

	final := points[len(points)-1]
	return &domain.BacktestResult{
		InitialInvestment:  initial,
		MonthlyInvestment:  monthly,
		TotalInvested:      final.Invested,
		FinalTotal:         final.Total,
		TotalReturnPct:     perf.TotalReturnPct,
		MaxDrawdownPct:     perf.MaxDrawdownPct,
		BenchmarkReturnPct: 0,
		AbsoluteProfit:     perf.AbsoluteProfit,
		TotalInvestments:   sched.Len(),
		EquityCurve:        equity,
		BenchmarkCurve:     BuildPrincipalCurve(sched, initial, monthly, series.Dates()),
		Stats: domain.StrategyStats{
			InvestmentDates:        investmentDates,
			TradingDays:            len(series),
			InvestmentPeriodMonths: sched.Len() - 1,
		},
		Portfolio: points,
	}, nil
}

// validateSeries applies the eager single-asset input checks.
func validateSeries(series domain.PriceSeries) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}
	for _, p := range series {
		if math.IsNaN(p.Close) {
			return fmt.Errorf("%w: no close for %s", ErrMissingClose, domain.DateKey(p.Date))
		}
	}
	if len(series) < MinSeriesLength {
		return fmt.Errorf("%w: need at least %d points, got %d",
			ErrInsufficientData, MinSeriesLength, len(series))
	}
	return nil
}
