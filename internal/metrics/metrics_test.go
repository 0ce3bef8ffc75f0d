package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/monsefu/resplan/internal/model"
)

func TestRecordPlan(t *testing.T) {
	p := &model.Plan{
		Demand: model.ResourceDemand{
			Personnel: model.PersonnelDemand{Serenos: 4, Policias: 2},
			Vehicles:  model.VehicleDemand{Ambulancias: 1},
			Budget:    8050,
		},
		Gap: &model.GapReport{
			InventoryPersonnel: 5,
			PersonnelTotalGap:  -1,
			CriticalDeficits:   []model.CriticalDeficit{{ResourceName: "serenos"}},
		},
		Kpis: model.KpiSet{ResponseCapacityPct: 91.7},
	}
	before := testutil.ToFloat64(PlansTotal.WithLabelValues("complete"))
	RecordPlan(p, "complete", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(PlansTotal.WithLabelValues("complete")))
	assert.Equal(t, 6.0, testutil.ToFloat64(ResourcesRequired.WithLabelValues("personnel")))
	assert.Equal(t, -1.0, testutil.ToFloat64(ResourceGap.WithLabelValues("personnel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CriticalDeficits))
	assert.Equal(t, 8050.0, testutil.ToFloat64(BudgetMonthly))

	RecordPlan(&model.Plan{}, "degraded", time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(CriticalDeficits))
	assert.Equal(t, 0, testutil.CollectAndCount(ResourceGap))
}

func TestObserveProvider(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("ratios", "hit"))
	ObserveProvider("ratios", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("ratios", "hit")))
}
