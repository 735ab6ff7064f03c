package backtest

import (
	"fmt"

	"dca-backtest-lab/internal/domain"
)

// simulate folds the price series once, in date order, applying a purchase
// on every schedule date and recording the portfolio state for every date.
// Shares and invested capital never decrease; exactly one purchase happens
// per schedule date and none elsewhere.
func simulate(series domain.PriceSeries, sched *Schedule, initial, monthly float64) ([]domain.PortfolioPoint, error) {
	points := make([]domain.PortfolioPoint, 0, len(series))

	var shares, invested float64
	for _, p := range series {
		if sched.Contains(p.Date) {
			amount := monthly
			if p.Date.Equal(sched.First()) {
				amount = initial
			}

			if p.Close <= 0 {
				return nil, fmt.Errorf("%w: %s close=%v",
					ErrNonPositivePrice, domain.DateKey(p.Date), p.Close)
			}

			shares += amount / p.Close
			invested += amount
		}

		holdings := shares * p.Close
		points = append(points, domain.PortfolioPoint{
			Date:     p.Date,
			Shares:   shares,
			Invested: invested,
			Holdings: holdings,
			Total:    holdings,
			Cash:     0,
		})
	}

	return points, nil
}
