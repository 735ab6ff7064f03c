package domain

import "time"

// DateLayout is the wire format for calendar dates in result payloads.
const DateLayout = "2006-01-02"

// PricePoint is a single daily observation of an asset's closing price.
type PricePoint struct {
	Date  time.Time // trading date, normalized to UTC midnight
	Close float64   // closing price, expected > 0
}

// PriceSeries is an ordered sequence of daily price points.
// Dates are strictly increasing with no duplicates; the series is
// treated as read-only input by the backtest engine.
type PriceSeries []PricePoint

// Dates returns the trading calendar of the series, in ascending order.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// First returns the earliest point of the series.
// Callers must check the series is non-empty.
func (s PriceSeries) First() PricePoint { return s[0] }

// Last returns the latest point of the series.
// Callers must check the series is non-empty.
func (s PriceSeries) Last() PricePoint { return s[len(s)-1] }

// Restrict returns the subsequence of s whose dates are members of the
// given calendar set. Order is preserved.
func (s PriceSeries) Restrict(calendar map[time.Time]struct{}) PriceSeries {
	restricted := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if _, ok := calendar[p.Date]; ok {
			restricted = append(restricted, p)
		}
	}
	return restricted
}

// NormalizeDate truncates t to UTC midnight so that dates from different
// sources compare equal regardless of time-of-day or zone.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date as YYYY-MM-DD for result curves and stats.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
