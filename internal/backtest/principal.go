package backtest

import (
	"time"

	"dca-backtest-lab/internal/domain"
)

// principalAt returns the cumulative capital committed after k purchases.
// The first purchase contributes the initial amount, every later purchase
// the monthly amount. This formula is the single source of truth for
// invested capital: the simulator's bookkeeping must agree with it on
// every date.
func principalAt(k int, initial, monthly float64) float64 {
	if k <= 0 {
		return 0
	}
	return initial + float64(k-1)*monthly
}

// BuildPrincipalCurve evaluates the cumulative principal committed as of
// every date in the given range, independent of prices. The curve is the
// zero-growth benchmark a strategy's equity curve is compared against.
func BuildPrincipalCurve(sched *Schedule, initial, monthly float64, dates []time.Time) map[string]float64 {
	curve := make(map[string]float64, len(dates))
	for _, d := range dates {
		k := sched.CountThrough(d)
		curve[domain.DateKey(d)] = principalAt(k, initial, monthly)
	}
	return curve
}
