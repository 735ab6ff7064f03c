package backtest

import "dca-backtest-lab/internal/domain"

// performance holds the summary statistics derived from a simulated run.
type performance struct {
	TotalReturnPct float64
	MaxDrawdownPct float64
	AbsoluteProfit float64
}

// analyze computes return and drawdown statistics from the portfolio
// state sequence in a single left-to-right pass.
//
// Per-date return is measured against capital invested as of that date,
// and drawdown is the gap between that return and its running maximum.
// Returns are defined as 0 wherever invested capital is 0.
func analyze(points []domain.PortfolioPoint) performance {
	if len(points) == 0 {
		return performance{}
	}

	runningMax := 0.0
	maxDrawdown := 0.0
	for i, p := range points {
		ret := returnPct(p.Total, p.Invested)
		if i == 0 || ret > runningMax {
			runningMax = ret
		}
		if dd := ret - runningMax; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}

	final := points[len(points)-1]
	return performance{
		TotalReturnPct: returnPct(final.Total, final.Invested),
		MaxDrawdownPct: maxDrawdown,
		AbsoluteProfit: final.Total - final.Invested,
	}
}

// returnPct is the percentage return of total value over invested capital,
// 0 when nothing has been invested yet.
func returnPct(total, invested float64) float64 {
	if invested == 0 {
		return 0
	}
	return (total/invested - 1) * 100
}
