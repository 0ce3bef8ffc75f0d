// Package pipeline orchestrates plan computation: it fetches the forecast,
// ratios and inventory concurrently, then runs the engine on the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/monsefu/resplan/internal/engine"
	"github.com/monsefu/resplan/internal/metrics"
	"github.com/monsefu/resplan/internal/model"
)

// Years accepted by the forecasting model.
const (
	MinYear = 2020
	MaxYear = 2050
)

var (
	// ErrInvalidPeriod is returned for months outside 1..12 or years outside MinYear..MaxYear.
	ErrInvalidPeriod = errors.New("pipeline: invalid period")
	// ErrNoInventorySource marks plans computed without any inventory provider.
	ErrNoInventorySource = errors.New("pipeline: no inventory source configured")
)

// ForecastSource returns the incident forecast for a month.
type ForecastSource interface {
	FetchForecast(ctx context.Context, period model.Period) (model.Forecast, error)
}

// RatioProvider returns the current operational ratios.
type RatioProvider interface {
	Get(ctx context.Context) (model.OperationalRatios, error)
}

// InventoryProvider returns the current resource inventory.
type InventoryProvider interface {
	Get(ctx context.Context) (model.Inventory, error)
}

// Planner computes plans from injected sources.
type Planner struct {
	forecasts ForecastSource
	ratios    RatioProvider
	inventory InventoryProvider
	now       func() time.Time
}

// NewPlanner creates a planner. inventory may be nil for demand-only plans.
func NewPlanner(forecasts ForecastSource, ratios RatioProvider, inventory InventoryProvider) *Planner {
	return &Planner{
		forecasts: forecasts,
		ratios:    ratios,
		inventory: inventory,
		now:       time.Now,
	}
}

// ValidatePeriod checks a period against the range the forecasting model serves.
func ValidatePeriod(p model.Period) error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d must be 1..12", ErrInvalidPeriod, p.Month)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: year %d must be %d..%d", ErrInvalidPeriod, p.Year, MinYear, MaxYear)
	}
	return nil
}

// Plan computes the plan for period. When inventory cannot be obtained the plan
// is still returned, without a gap report and with default KPIs; failures of the
// forecast or ratios fail the plan.
func (p *Planner) Plan(ctx context.Context, period model.Period) (*model.Plan, error) {
	start := time.Now()
	plan, err := p.plan(ctx, period)
	metrics.RecordPlan(plan, string(StateOf(plan, err)), time.Since(start))
	return plan, err
}

func (p *Planner) plan(ctx context.Context, period model.Period) (*model.Plan, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}

	var (
		forecast model.Forecast
		ratios   model.OperationalRatios
		inv      *model.Inventory
		invErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := p.forecasts.FetchForecast(gctx, period)
		if err != nil {
			return fmt.Errorf("fetching forecast for %s: %w", period, err)
		}
		forecast = f
		return nil
	})
	g.Go(func() error {
		r, err := p.ratios.Get(gctx)
		if err != nil {
			return fmt.Errorf("loading ratios: %w", err)
		}
		ratios = r
		return nil
	})
	g.Go(func() error {
		if p.inventory == nil {
			invErr = ErrNoInventorySource
			return nil
		}
		v, err := p.inventory.Get(gctx)
		if err != nil {
			invErr = err
			return nil
		}
		inv = &v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	demand, err := engine.ComputeDemand(forecast, ratios)
	if err != nil {
		return nil, err
	}
	gap := engine.ComputeGap(demand, inv)

	plan := &model.Plan{
		ID:          uuid.New().String(),
		Period:      period,
		GeneratedAt: p.now(),
		Forecast:    forecast,
		Demand:      demand,
		Inventory:   inv,
		Gap:         gap,
		Kpis:        engine.ComputeKpis(demand, gap),
		Breakdown:   engine.ComputeBreakdown(forecast, demand),
		Utilization: engine.ComputeUtilization(demand, inv),
	}
	if invErr != nil {
		plan.InventoryError = invErr.Error()
	}
	return plan, nil
}
