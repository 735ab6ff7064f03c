package backtest

import (
	"math"
	"testing"
	"time"

	"dca-backtest-lab/internal/domain"
)

func TestPrincipalAt(t *testing.T) {
	cases := []struct {
		k    int
		want float64
	}{
		{-1, 0},
		{0, 0},
		{1, 1000},
		{2, 1500},
		{5, 3000},
	}
	for _, c := range cases {
		if got := principalAt(c.k, 1000, 500); got != c.want {
			t.Errorf("principalAt(%d) = %v, want %v", c.k, got, c.want)
		}
	}
}

func TestBuildPrincipalCurveSteps(t *testing.T) {
	cal := dailyCalendar(day(2024, time.March, 1), 95) // schedule: Mar 1, Apr 1, May 1, Jun 1
	sched := BuildSchedule(cal)

	curve := BuildPrincipalCurve(sched, 1000, 500, cal)

	cases := []struct {
		date time.Time
		want float64
	}{
		{day(2024, time.March, 1), 1000},
		{day(2024, time.March, 31), 1000},
		{day(2024, time.April, 1), 1500},
		{day(2024, time.April, 30), 1500},
		{day(2024, time.May, 1), 2000},
		{day(2024, time.June, 1), 2500},
		{day(2024, time.June, 3), 2500},
	}
	for _, c := range cases {
		got, ok := curve[domain.DateKey(c.date)]
		if !ok {
			t.Fatalf("curve missing %s", domain.DateKey(c.date))
		}
		if got != c.want {
			t.Errorf("curve[%s] = %v, want %v", domain.DateKey(c.date), got, c.want)
		}
	}
	if len(curve) != len(cal) {
		t.Errorf("curve has %d entries, want one per calendar date (%d)", len(curve), len(cal))
	}
}

// The principal curve and the simulator keep invested capital by two
// independent routes; they must agree on every date.
func TestPrincipalCurveMatchesSimulatedInvested(t *testing.T) {
	cal := weekdayCalendar(day(2023, time.January, 3), 250)
	series := make(domain.PriceSeries, len(cal))
	for i, d := range cal {
		series[i] = domain.PricePoint{Date: d, Close: 50 + 0.3*float64(i) + 5*math.Sin(float64(i)/7)}
	}

	sched := BuildSchedule(cal)
	curve := BuildPrincipalCurve(sched, 1000, 500, cal)

	points, err := simulate(series, sched, 1000, 500)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	for _, p := range points {
		if want := curve[domain.DateKey(p.Date)]; p.Invested != want {
			t.Fatalf("invested at %s = %v, principal curve says %v", domain.DateKey(p.Date), p.Invested, want)
		}
	}
}
