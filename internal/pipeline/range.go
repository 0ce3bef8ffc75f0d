package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/monsefu/resplan/internal/model"
)

// Result is the outcome of planning one month.
type Result struct {
	Period model.Period
	Plan   *model.Plan
	Err    error
}

// State classifies the result.
func (r Result) State() State {
	return StateOf(r.Plan, r.Err)
}

// ProgressFunc is called as months complete.
type ProgressFunc func(current, total int)

// maxRangeWorkers bounds concurrent upstream requests for a range.
const maxRangeWorkers = 4

// PlanRange plans n consecutive months starting at from. Results are returned
// in period order; a failed month does not stop the others.
func (p *Planner) PlanRange(ctx context.Context, from model.Period, n int, progressFn ProgressFunc) []Result {
	if n <= 0 {
		return nil
	}
	results := make([]Result, n)

	numWorkers := min(runtime.GOMAXPROCS(0), maxRangeWorkers, n)
	work := make(chan int, n)
	for i := range results {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var processed atomic.Int64
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				period := from.AddMonths(idx)
				plan, err := p.Plan(ctx, period)
				results[idx] = Result{Period: period, Plan: plan, Err: err}
				done := processed.Add(1)
				if progressFn != nil {
					progressFn(int(done), n)
				}
			}
		}()
	}
	wg.Wait()
	return results
}

// RangeSummary aggregates a range of plans.
type RangeSummary struct {
	Months          int
	Complete        int
	Degraded        int
	Failed          int
	DeficitMonths   int
	TotalCases      float64
	TotalBudget     int64
	TotalLaborHours float64
	PeakPersonnel   int
	PeakPeriod      model.Period
	PeakVehicles    int
}

// Summarize aggregates planned months. Failed months only count toward Failed.
func Summarize(results []Result) RangeSummary {
	var s RangeSummary
	s.Months = len(results)
	for _, r := range results {
		switch r.State() {
		case StateFailed, StateNoData:
			s.Failed++
			continue
		case StateDegraded:
			s.Degraded++
		case StateComplete:
			s.Complete++
			if r.Plan.Gap.Status == model.StatusDeficit {
				s.DeficitMonths++
			}
		}
		d := r.Plan.Demand
		s.TotalCases += d.TotalCases
		s.TotalBudget += d.Budget
		s.TotalLaborHours += d.LaborHours
		if total := d.Personnel.Total(); total > s.PeakPersonnel {
			s.PeakPersonnel = total
			s.PeakPeriod = r.Period
		}
		if total := d.Vehicles.Total(); total > s.PeakVehicles {
			s.PeakVehicles = total
		}
	}
	return s
}
