// Package metrics provides Prometheus metrics for plan computation and providers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/monsefu/resplan/internal/model"
)

// Registry is the custom prometheus registry for resplan.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Demand and inventory of the last computed plan, by resource group.

// ResourcesRequired is the demanded count per group (personnel, vehicles).
var ResourcesRequired = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "resources_required",
	Help:      "Resources required by the last computed plan",
}, []string{"group"})

// ResourcesAvailable is the inventory count per group.
var ResourcesAvailable = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "resources_available",
	Help:      "Resources available in inventory for the last computed plan",
}, []string{"group"})

// ResourceGap is inventory minus demand per group. Negative means short.
var ResourceGap = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "resource_gap",
	Help:      "Inventory minus demand for the last computed plan",
}, []string{"group"})

// CriticalDeficits counts resources short by more than the critical share.
var CriticalDeficits = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "critical_deficits",
	Help:      "Number of critical deficits in the last computed plan",
})

// BudgetMonthly is the monthly budget of the last computed plan.
var BudgetMonthly = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "budget_monthly",
	Help:      "Monthly operating budget of the last computed plan",
})

// ResponseCapacity is the response capacity KPI of the last computed plan.
var ResponseCapacity = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "resplan",
	Name:      "response_capacity_pct",
	Help:      "Response capacity percentage of the last computed plan",
})

// PlansTotal counts plan computations by presentation state.
var PlansTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "resplan",
	Name:      "plans_total",
	Help:      "Plan computations by resulting state",
}, []string{"state"})

// PlanDurationSeconds tracks end-to-end plan time, fetches included.
var PlanDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "resplan",
	Name:      "plan_duration_seconds",
	Help:      "Time taken to compute a plan including upstream fetches",
	Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// ProviderRequestsTotal counts provider lookups by outcome (hit, miss, stale, error).
var ProviderRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "resplan",
	Name:      "provider_requests_total",
	Help:      "Provider lookups by provider and outcome",
}, []string{"provider", "outcome"})

// ObserveProvider records one provider lookup outcome.
func ObserveProvider(name, outcome string) {
	ProviderRequestsTotal.WithLabelValues(name, outcome).Inc()
}

// RecordPlan updates gauges from a computed plan. p may be nil for failed plans.
func RecordPlan(p *model.Plan, state string, took time.Duration) {
	PlansTotal.WithLabelValues(state).Inc()
	PlanDurationSeconds.Observe(took.Seconds())
	if p == nil {
		return
	}

	ResourcesRequired.WithLabelValues("personnel").Set(float64(p.Demand.Personnel.Total()))
	ResourcesRequired.WithLabelValues("vehicles").Set(float64(p.Demand.Vehicles.Total()))
	BudgetMonthly.Set(float64(p.Demand.Budget))
	ResponseCapacity.Set(p.Kpis.ResponseCapacityPct)

	if p.Gap == nil {
		ResourcesAvailable.Reset()
		ResourceGap.Reset()
		CriticalDeficits.Set(0)
		return
	}
	ResourcesAvailable.WithLabelValues("personnel").Set(float64(p.Gap.InventoryPersonnel))
	ResourcesAvailable.WithLabelValues("vehicles").Set(float64(p.Gap.InventoryVehicles))
	ResourceGap.WithLabelValues("personnel").Set(float64(p.Gap.PersonnelTotalGap))
	ResourceGap.WithLabelValues("vehicles").Set(float64(p.Gap.VehicleTotalGap))
	CriticalDeficits.Set(float64(len(p.Gap.CriticalDeficits)))
}
