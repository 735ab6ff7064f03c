package backtest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"dca-backtest-lab/internal/domain"
)

const (
	// MinAssets and MaxAssets bound a multi-asset comparison run.
	MinAssets = 2
	MaxAssets = 5

	// DefaultMaxWorkers caps the per-asset concurrency of RunMulti.
	DefaultMaxWorkers = 5
)

// RunMulti backtests the same DCA strategy across several assets on a
// shared trading calendar, so the results are directly comparable.
//
// The shared calendar is the intersection of every asset's dates; one
// schedule and one principal curve are derived from it and applied to
// every asset. Assets run concurrently on a bounded worker pool, at most
// maxWorkers wide (DefaultMaxWorkers when maxWorkers <= 0). A failure in
// one asset is recorded in its outcome and does not abort the others.
// Outcomes are returned in input order.
func RunMulti(assets []domain.AssetSeries, initial, monthly float64, maxWorkers int) (*domain.MultiBacktestResult, error) {
	if len(assets) < MinAssets {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewAssets, len(assets), MinAssets)
	}
	if len(assets) > MaxAssets {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyAssets, len(assets), MaxAssets)
	}
	for _, a := range assets {
		if len(a.Series) == 0 {
			return nil, fmt.Errorf("%w: asset %s has no data", ErrEmptySeries, a.Code)
		}
	}

	calendar := sharedCalendar(assets)
	if len(calendar) == 0 {
		return nil, fmt.Errorf("%w: no trading dates shared by all %d assets",
			ErrEmptyIntersection, len(assets))
	}

	member := make(map[time.Time]struct{}, len(calendar))
	for _, d := range calendar {
		member[d] = struct{}{}
	}

	sched := BuildSchedule(calendar)
	benchmark := BuildPrincipalCurve(sched, initial, monthly, calendar)

	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	workers := maxWorkers
	if len(assets) < workers {
		workers = len(assets)
	}

	type indexed struct {
		i       int
		outcome domain.AssetOutcome
	}

	jobs := make(chan int)
	results := make(chan indexed, len(assets))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a := assets[i]
				results <- indexed{i: i, outcome: runAsset(a, member, sched, initial, monthly)}
			}
		}()
	}

	for i := range assets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	outcomes := make([]domain.AssetOutcome, len(assets))
	for r := range results {
		outcomes[r.i] = r.outcome
	}

	investmentDates := make([]string, sched.Len())
	for i, d := range sched.Dates() {
		investmentDates[i] = domain.DateKey(d)
	}

	totalInvested := principalAt(sched.Len(), initial, monthly)
	return &domain.MultiBacktestResult{
		InitialInvestment: initial,
		MonthlyInvestment: monthly,
		TotalInvested:     totalInvested,
		TotalInvestments:  sched.Len(),
		InvestmentDates:   investmentDates,
		BenchmarkCurve:    benchmark,
		Outcomes:          outcomes,
	}, nil
}

// runAsset restricts one asset's series to the shared calendar and runs the
// single-asset pipeline against the shared schedule. Errors become part of
// the outcome instead of propagating.
func runAsset(a domain.AssetSeries, calendar map[time.Time]struct{}, sched *Schedule, initial, monthly float64) domain.AssetOutcome {
	out := domain.AssetOutcome{Code: a.Code, Name: a.Name}

	restricted := a.Series.Restrict(calendar)
	if err := validateSeries(restricted); err != nil {
		out.Error = err.Error()
		return out
	}

	res, err := runScheduled(restricted, sched, initial, monthly)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Result = res
	return out
}

// sharedCalendar returns the ascending intersection of every asset's dates.
func sharedCalendar(assets []domain.AssetSeries) []time.Time {
	counts := make(map[time.Time]int)
	for _, a := range assets {
		for _, d := range a.Series.Dates() {
			counts[d]++
		}
	}

	var shared []time.Time
	for d, n := range counts {
		if n == len(assets) {
			shared = append(shared, d)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Before(shared[j]) })
	return shared
}
