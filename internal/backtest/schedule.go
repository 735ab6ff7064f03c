package backtest

import (
	"sort"
	"time"
)

// Schedule is the ordered set of purchase dates for a run. It keeps both
// the ordered sequence and a membership set so the simulator can test
// dates in O(1) while the principal curve counts entries by binary search.
type Schedule struct {
	dates  []time.Time
	member map[time.Time]struct{}
}

// BuildSchedule derives the monthly purchase schedule from an ascending,
// deduplicated trading calendar. The first calendar date is always the
// first entry. From each entry, the next target is exactly one calendar
// month forward (day-of-month clamped to the target month's length), and
// the next entry is the earliest trading date at or after that target.
// The schedule ends when the calendar runs out of dates at or after the
// target, or when the found date would repeat the latest entry or exceed
// the calendar's last date.
//
// Identical calendars always produce identical schedules.
func BuildSchedule(calendar []time.Time) *Schedule {
	if len(calendar) == 0 {
		return &Schedule{member: map[time.Time]struct{}{}}
	}

	start := calendar[0]
	end := calendar[len(calendar)-1]

	dates := []time.Time{start}
	member := map[time.Time]struct{}{start: {}}

	anchor := start
	for anchor.Before(end) {
		target := addOneMonth(anchor)

		idx := sort.Search(len(calendar), func(i int) bool {
			return !calendar[i].Before(target)
		})
		if idx == len(calendar) {
			break // calendar exhausted before the next target
		}

		next := calendar[idx]
		if next.Equal(dates[len(dates)-1]) || next.After(end) {
			break
		}

		dates = append(dates, next)
		member[next] = struct{}{}
		anchor = next
	}

	return &Schedule{dates: dates, member: member}
}

// Dates returns the schedule entries in ascending order.
func (s *Schedule) Dates() []time.Time { return s.dates }

// Len returns the number of schedule entries.
func (s *Schedule) Len() int { return len(s.dates) }

// Contains reports whether d is a purchase date.
func (s *Schedule) Contains(d time.Time) bool {
	_, ok := s.member[d]
	return ok
}

// First returns the initial purchase date. Callers must check Len() > 0.
func (s *Schedule) First() time.Time { return s.dates[0] }

// CountThrough returns how many schedule entries fall at or before t.
func (s *Schedule) CountThrough(t time.Time) int {
	return sort.Search(len(s.dates), func(i int) bool {
		return s.dates[i].After(t)
	})
}

// addOneMonth shifts t forward by one calendar month, keeping the
// day-of-month and clamping it to the last day of the target month
// (Jan 31 -> Feb 28/29).
func addOneMonth(t time.Time) time.Time {
	y, m, d := t.Date()

	// Day 0 of month m+2 is the last day of month m+1.
	lastDay := time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, m+1, d, 0, 0, 0, 0, time.UTC)
}
