package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDate_StripsTimeAndZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 2024-03-15 21:30 in New York is 2024-03-16 01:30 UTC.
	stamp := time.Date(2024, 3, 15, 21, 30, 0, 0, loc)
	got := NormalizeDate(stamp)

	want := day(2024, 3, 16)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
}

func TestDateKey_Format(t *testing.T) {
	if got := DateKey(day(2024, 1, 5)); got != "2024-01-05" {
		t.Errorf("expected 2024-01-05, got %s", got)
	}
}

func TestPriceSeries_Restrict(t *testing.T) {
	series := PriceSeries{
		{Date: day(2024, 1, 1), Close: 10},
		{Date: day(2024, 1, 2), Close: 11},
		{Date: day(2024, 1, 3), Close: 12},
	}
	calendar := map[time.Time]struct{}{
		day(2024, 1, 1): {},
		day(2024, 1, 3): {},
	}

	got := series.Restrict(calendar)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if !got[0].Date.Equal(day(2024, 1, 1)) || !got[1].Date.Equal(day(2024, 1, 3)) {
		t.Errorf("restricted series out of order: %v", got.Dates())
	}
}
