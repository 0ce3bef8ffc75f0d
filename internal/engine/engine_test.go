package engine

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monsefu/resplan/internal/model"
)

func testRatios() model.OperationalRatios {
	return model.RatioTable{
		"SERENO":             {"llamadas_mes": 15, "casos_mes": 8},
		"POLICIA":            {"llamadas_mes": 20, "casos_mes": 12},
		"BOMBERO":            {"llamadas_mes": 30, "casos_mes": 5},
		"AMBULANCIA":         {"llamadas_mes": 25, "turnos_dia": 3},
		"VEHICULO_SERENAZGO": {"llamadas_mes": 50},
		"VEHICULO_POLICIA":   {"llamadas_mes": 60},
		"VEHICULO_BOMBEROS":  {"llamadas_mes": 40},
		"PRESUPUESTO":        {"costo_caso": 50, "overhead": 1.15},
		"TIEMPO":             {"horas_caso": 2, "dias_laborables": 22},
	}.Ratios()
}

func period() model.Period { return model.Period{Year: 2026, Month: 11} }

func TestComputeDemandEndToEnd(t *testing.T) {
	f := model.Forecast{
		Period:      period(),
		Emergencies: map[model.TypeCode]float64{2: 40, 3: 60, 4: 25, 5: 10, 6: 5},
	}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)

	assert.Equal(t, 2, d.Personnel.Policias)
	assert.Equal(t, 4, d.Personnel.Serenos)
	assert.Equal(t, 1, d.Personnel.Bomberos)
	assert.Equal(t, 2, d.Vehicles.Serenazgo)
	assert.Equal(t, 1, d.Vehicles.Policia)
	assert.Equal(t, 1, d.Vehicles.Bomberos)
	assert.Equal(t, 1, d.Vehicles.Ambulancias)
	assert.Equal(t, 0, d.Personnel.ComplaintStaff)

	assert.Equal(t, 140.0, d.TotalCases)
	assert.Equal(t, int64(8050), d.Budget)
	assert.Equal(t, 280.0, d.LaborHours)
	assert.Equal(t, model.ServiceLoad{Police: 40, Patrol: 60, Ambulance: 25, Fire: 15}, d.EmergenciesByService)
}

func TestComputeDemandZeroEmergencies(t *testing.T) {
	f := model.Forecast{
		Period:      period(),
		Complaints:  map[model.TypeCode]float64{1: 30, 5: 11},
		Emergencies: map[model.TypeCode]float64{2: 0, 3: 0, 4: 0, 5: 0, 6: 0},
	}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)

	assert.Equal(t, model.PersonnelDemand{ComplaintStaff: 6}, d.Personnel)
	assert.Equal(t, model.VehicleDemand{}, d.Vehicles)
	assert.Equal(t, 41.0, d.TotalComplaints)
}

func TestComputeDemandUnmappedEmergency(t *testing.T) {
	f := model.Forecast{
		Period:      period(),
		Emergencies: map[model.TypeCode]float64{2: 10, 9: 7},
	}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)
	assert.Equal(t, 17.0, d.TotalEmergencies)
	assert.Equal(t, 7.0, d.UnmappedEmergencies)
	assert.Equal(t, 1, d.Personnel.Policias)
}

func TestComputeDemandFractionalRoundsUp(t *testing.T) {
	f := model.Forecast{Period: period(), Emergencies: map[model.TypeCode]float64{2: 20.5}}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Personnel.Policias)
}

func TestUnits(t *testing.T) {
	assert.Equal(t, 0, units(0, 20))
	assert.Equal(t, 2, units(40, 20))
	assert.Equal(t, 3, units(40.0000000001, 20))
	assert.Equal(t, 2, units(20.00000001, 20))
	a, b := 0.1, 0.2
	assert.Equal(t, 1, units(a+b, 0.3))
	assert.Equal(t, 3, units(2.1, 0.7))
	assert.Equal(t, 3, units(41, 20))
	assert.Equal(t, 1, units(1e-12, 20))
	assert.Equal(t, 10000000000, units(1e10, 1))
}

func TestComputeDemandProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := testRatios()
	for i := 0; i < 500; i++ {
		f := model.Forecast{
			Period:      period(),
			Complaints:  map[model.TypeCode]float64{},
			Emergencies: map[model.TypeCode]float64{},
		}
		for c := 1; c <= 12; c++ {
			f.Complaints[model.TypeCode(c)] = math.Floor(rng.Float64()*200*100) / 100
		}
		for c := 2; c <= 6; c++ {
			f.Emergencies[model.TypeCode(c)] = math.Floor(rng.Float64() * 150)
		}

		d, err := ComputeDemand(f, r)
		require.NoError(t, err)
		again, err := ComputeDemand(f, r)
		require.NoError(t, err)
		require.Equal(t, d, again, "demand must be reproducible")

		for _, n := range []int{
			d.Personnel.Serenos, d.Personnel.Policias, d.Personnel.Bomberos, d.Personnel.ComplaintStaff,
			d.Vehicles.Serenazgo, d.Vehicles.Policia, d.Vehicles.Bomberos, d.Vehicles.Ambulancias,
		} {
			require.GreaterOrEqual(t, n, 0)
		}
		police := d.EmergenciesByService.Police
		require.GreaterOrEqual(t, float64(d.Personnel.Policias)*20, police)
		if d.Personnel.Policias > 0 {
			require.Less(t, float64(d.Personnel.Policias-1)*20, police)
		}
		require.GreaterOrEqual(t, d.Budget, int64(0))
	}
}

func TestComputeDemandInvalidForecast(t *testing.T) {
	cases := map[string]model.Forecast{
		"negative":  {Period: period(), Complaints: map[model.TypeCode]float64{1: -1}},
		"nan":       {Period: period(), Emergencies: map[model.TypeCode]float64{2: math.NaN()}},
		"inf":       {Period: period(), Emergencies: map[model.TypeCode]float64{3: math.Inf(1)}},
		"bad month": {Period: model.Period{Year: 2026, Month: 13}},
		"too large": {Period: period(), Emergencies: map[model.TypeCode]float64{2: 1e300}, Complaints: map[model.TypeCode]float64{1: 1e300}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeDemand(f, testRatios())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidForecast)
			var ife *InvalidForecastError
			assert.ErrorAs(t, err, &ife)
		})
	}
}

func TestComputeDemandCountBound(t *testing.T) {
	f := model.Forecast{Period: period(), Emergencies: map[model.TypeCode]float64{2: 1e300}}
	_, err := ComputeDemand(f, testRatios())
	require.ErrorIs(t, err, ErrCountTooLarge)

	f.Emergencies[2] = MaxCount
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)
	assert.Equal(t, int(MaxCount/20), d.Personnel.Policias)
	assert.Positive(t, d.Budget)
}

func TestComputeDemandOverflowFromTinyCapacity(t *testing.T) {
	r := testRatios()
	police := r.Roles[model.RolePolicia]
	police.CallsPerMonth = model.Float(1e-300)
	r.Roles[model.RolePolicia] = police
	f := model.Forecast{Period: period(), Emergencies: map[model.TypeCode]float64{2: 40}}

	d, err := ComputeDemand(f, r)
	require.ErrorIs(t, err, ErrDemandOverflow)
	assert.ErrorIs(t, err, ErrInvalidForecast)
	assert.Zero(t, d)

	r = testRatios()
	r.Budget = &model.BudgetRatio{CostPerCase: model.Float(1e300), Overhead: model.Float(1.15)}
	_, err = ComputeDemand(f, r)
	require.ErrorIs(t, err, ErrDemandOverflow)
	assert.Contains(t, err.Error(), "budget")
}

func TestComputeDemandMissingRatio(t *testing.T) {
	t.Run("absent category", func(t *testing.T) {
		r := testRatios()
		r.Time = nil
		_, err := ComputeDemand(model.Forecast{Period: period()}, r)
		require.ErrorIs(t, err, ErrMissingRatio)
		var mre *MissingRatioError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, model.CategoryTime, mre.Category)
		assert.False(t, mre.Present)
	})

	t.Run("zero capacity", func(t *testing.T) {
		r := testRatios()
		r.Roles[model.RolePolicia] = model.RoleRatio{CallsPerMonth: model.Float(0)}
		_, err := ComputeDemand(model.Forecast{Period: period()}, r)
		var mre *MissingRatioError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, "POLICIA", mre.Category)
		assert.True(t, mre.Present)
	})

	t.Run("reports every missing value", func(t *testing.T) {
		r := testRatios()
		delete(r.Roles, model.RoleBombero)
		r.Budget = nil
		err := ValidateRatios(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOMBERO.llamadas_mes")
		assert.Contains(t, err.Error(), "PRESUPUESTO.costo_caso")
		assert.Contains(t, err.Error(), "PRESUPUESTO.overhead")
	})

	t.Run("empty ratios", func(t *testing.T) {
		_, err := ComputeDemand(model.Forecast{Period: period()}, model.OperationalRatios{})
		assert.ErrorIs(t, err, ErrMissingRatio)
	})
}

func TestServiceMapping(t *testing.T) {
	want := map[model.TypeCode]model.Service{
		2: model.ServicePolice,
		3: model.ServicePatrol,
		4: model.ServiceAmbulance,
		5: model.ServiceFire,
		6: model.ServiceFire,
	}
	for code := model.TypeCode(-1); code <= 20; code++ {
		svc, ok := ServiceFor(code)
		expected, known := want[code]
		assert.Equal(t, known, ok, "code %d", code)
		assert.Equal(t, expected, svc, "code %d", code)
	}
}

func TestComputeGapNilInventory(t *testing.T) {
	assert.Nil(t, ComputeGap(model.ResourceDemand{}, nil))
}

func TestComputeGapExactMatch(t *testing.T) {
	d := model.ResourceDemand{
		Personnel: model.PersonnelDemand{Serenos: 10, Policias: 4, Bomberos: 2, ComplaintStaff: 3},
		Vehicles:  model.VehicleDemand{Serenazgo: 2, Policia: 1, Bomberos: 1, Ambulancias: 1},
	}
	inv := &model.Inventory{
		Serenos: 10, Policias: 4, Bomberos: 2,
		VehiculosSerenazgo: 2, VehiculosPolicia: 1, VehiculosBomberos: 1, Ambulancias: 1,
	}
	g := ComputeGap(d, inv)
	require.NotNil(t, g)
	assert.Equal(t, model.PersonnelGap{}, g.Personnel)
	assert.Equal(t, model.VehicleGap{}, g.Vehicles)
	assert.Zero(t, g.PersonnelTotalGap)
	assert.Zero(t, g.VehicleTotalGap)
	assert.Equal(t, model.StatusSufficient, g.Status)
	assert.Empty(t, g.CriticalDeficits)
}

func TestComputeGapCriticalThreshold(t *testing.T) {
	d := model.ResourceDemand{Personnel: model.PersonnelDemand{Serenos: 39, Policias: 39}}
	g := ComputeGap(d, &model.Inventory{Serenos: 30, Policias: 32})

	require.Len(t, g.CriticalDeficits, 1)
	cd := g.CriticalDeficits[0]
	assert.Equal(t, "serenos", cd.ResourceName)
	assert.Equal(t, 9, cd.DeficitAmount)
	assert.Equal(t, 30, cd.CurrentAmount)
	assert.Equal(t, 39, cd.RequiredAmount)
	assert.InDelta(t, 23.0769, cd.DeficitPercentage, 1e-4)
	assert.Equal(t, -16, g.PersonnelTotalGap)
	assert.Equal(t, model.StatusDeficit, g.Status)
}

func TestComputeGapBoundaryNotCritical(t *testing.T) {
	d := model.ResourceDemand{Personnel: model.PersonnelDemand{Bomberos: 10}}
	g := ComputeGap(d, &model.Inventory{Bomberos: 8})
	assert.Empty(t, g.CriticalDeficits)
	assert.Equal(t, -2, g.Personnel.Bomberos)
}

func TestComputeGapZeroRequiredNeverCritical(t *testing.T) {
	g := ComputeGap(model.ResourceDemand{}, &model.Inventory{})
	assert.Empty(t, g.CriticalDeficits)
	assert.Equal(t, model.StatusSufficient, g.Status)
}

func TestComputeGapDeficitOrder(t *testing.T) {
	d := model.ResourceDemand{
		Personnel: model.PersonnelDemand{Serenos: 10, Bomberos: 10},
		Vehicles:  model.VehicleDemand{Ambulancias: 4, Policia: 10},
	}
	inv := &model.Inventory{Serenos: 2, Bomberos: 5, Ambulancias: 2, VehiculosPolicia: 5}
	g := ComputeGap(d, inv)

	var names []string
	for _, cd := range g.CriticalDeficits {
		names = append(names, cd.ResourceName)
	}
	assert.Equal(t, []string{"serenos", "bomberos", "vehiculos_policia", "ambulancias"}, names)
}

func TestGapReportJSONRoundTrip(t *testing.T) {
	d := model.ResourceDemand{
		Personnel: model.PersonnelDemand{Serenos: 39, Policias: 7, Bomberos: 3},
		Vehicles:  model.VehicleDemand{Serenazgo: 3, Policia: 2, Bomberos: 1, Ambulancias: 3},
	}
	g := ComputeGap(d, &model.Inventory{Serenos: 30, Policias: 2, Bomberos: 3, Ambulancias: 1})

	data, err := json.Marshal(g)
	require.NoError(t, err)
	var back model.GapReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *g, back)
}

func TestComputeKpisDefault(t *testing.T) {
	d := model.ResourceDemand{Personnel: model.PersonnelDemand{Serenos: 4}, TotalCases: 10}
	k := ComputeKpis(d, nil)
	assert.Equal(t, model.KpiDefault, k.Mode)
	assert.Equal(t, NeutralKpiPct, k.PersonnelEfficiencyPct)
	assert.Equal(t, NeutralKpiPct, k.VehicleCoveragePct)
	assert.Equal(t, 85.0, k.ResponseCapacityPct)
	assert.Equal(t, 2.5, k.CasesPerPersonnel)
}

func TestComputeKpisClampedOnSurplus(t *testing.T) {
	d := model.ResourceDemand{
		Personnel: model.PersonnelDemand{Serenos: 5, Policias: 5},
		Vehicles:  model.VehicleDemand{Serenazgo: 3},
	}
	inv := &model.Inventory{Serenos: 50, Policias: 50, VehiculosSerenazgo: 2}
	k := ComputeKpis(d, ComputeGap(d, inv))

	assert.Equal(t, model.KpiMeasured, k.Mode)
	assert.Equal(t, 100.0, k.PersonnelEfficiencyPct)
	assert.InDelta(t, 66.6667, k.VehicleCoveragePct, 1e-3)
	assert.Equal(t, 83.3, k.ResponseCapacityPct)
}

func TestComputeKpisFloorAndZeroDemand(t *testing.T) {
	d := model.ResourceDemand{Personnel: model.PersonnelDemand{Serenos: 10, ComplaintStaff: 10}}
	gap := &model.GapReport{PersonnelTotalGap: -30}
	k := ComputeKpis(d, gap)
	assert.Equal(t, 0.0, k.PersonnelEfficiencyPct)
	assert.Equal(t, 100.0, k.VehicleCoveragePct)

	empty := ComputeKpis(model.ResourceDemand{}, &model.GapReport{})
	assert.Equal(t, 100.0, empty.PersonnelEfficiencyPct)
	assert.Equal(t, 0.0, empty.CasesPerPersonnel)
	assert.False(t, math.IsNaN(empty.ResponseCapacityPct))
}

func TestComputeBreakdown(t *testing.T) {
	f := model.Forecast{
		Period:      period(),
		Complaints:  map[model.TypeCode]float64{4: 10, 1: 60, 2: 30, 3: 10},
		Emergencies: map[model.TypeCode]float64{2: 40, 9: 5},
	}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)
	b := ComputeBreakdown(f, d)

	require.Len(t, b.Complaints, 4)
	assert.Equal(t, []model.TypeCode{1, 2, 3, 4}, []model.TypeCode{
		b.Complaints[0].Code, b.Complaints[1].Code, b.Complaints[2].Code, b.Complaints[3].Code,
	})
	top := b.Complaints[0]
	assert.Equal(t, "Ruidos molestos", top.Name)
	assert.Equal(t, 8, top.Staff)
	assert.Equal(t, 120.0, top.Hours)
	assert.Equal(t, 3000.0, top.Cost)
	assert.Equal(t, model.PriorityHigh, top.Priority)
	assert.InDelta(t, 54.545, top.SharePct, 1e-3)
	assert.Equal(t, model.PriorityMedium, b.Complaints[1].Priority)
	assert.Equal(t, model.PriorityLow, b.Complaints[2].Priority)

	require.Len(t, b.Emergencies, 2)
	assert.Equal(t, model.ServicePolice, b.Emergencies[0].Service)
	assert.Equal(t, model.Service(""), b.Emergencies[1].Service)
	assert.Equal(t, "Código 9", b.Emergencies[1].Name)

	require.Len(t, b.Shifts, 4)
	var estimated int
	for _, s := range b.Shifts {
		estimated += s.EstimatedCases
	}
	assert.Equal(t, 155, estimated)
	assert.Equal(t, model.PriorityHigh, b.Shifts[2].Intensity)
	assert.Equal(t, model.PriorityLow, b.Shifts[0].Intensity)

	assert.InDelta(t, float64(d.Budget)/155, b.Efficiency.CostPerCase, 1e-9)
	assert.Equal(t, 2.0, b.Efficiency.HoursPerCase)
	assert.InDelta(t, 310.0/22, b.Efficiency.DailyHours, 1e-9)
}

func TestShiftStaffing(t *testing.T) {
	f := model.Forecast{Period: period(), Complaints: map[model.TypeCode]float64{1: 100}}
	d, err := ComputeDemand(f, testRatios())
	require.NoError(t, err)
	b := ComputeBreakdown(f, d)

	got := []int{}
	for _, s := range b.Shifts {
		got = append(got, s.SuggestedStaff)
	}
	assert.Equal(t, []int{30, 94, 132, 120}, got)
}

func TestComputeBreakdownNoCases(t *testing.T) {
	d, err := ComputeDemand(model.Forecast{Period: period()}, testRatios())
	require.NoError(t, err)
	b := ComputeBreakdown(model.Forecast{Period: period()}, d)
	assert.Empty(t, b.Complaints)
	assert.Zero(t, b.Efficiency.CostPerCase)
	for _, s := range b.Shifts {
		assert.Zero(t, s.SuggestedStaff)
	}
}

func TestComputeUtilization(t *testing.T) {
	assert.Nil(t, ComputeUtilization(model.ResourceDemand{}, nil))

	d := model.ResourceDemand{
		Personnel: model.PersonnelDemand{Serenos: 30, ComplaintStaff: 20},
		Vehicles:  model.VehicleDemand{Serenazgo: 30},
	}
	u := ComputeUtilization(d, &model.Inventory{Serenos: 100, VehiculosSerenazgo: 20})
	assert.Equal(t, 50.0, u.PersonnelPct)
	assert.Equal(t, 50.0, u.SpareCapacityPct)
	assert.Equal(t, 100.0, u.VehiclePct)

	zero := ComputeUtilization(d, &model.Inventory{})
	assert.Equal(t, model.Utilization{}, *zero)
}

func TestErrorsAreDistinct(t *testing.T) {
	_, err := ComputeDemand(model.Forecast{Period: period()}, model.OperationalRatios{})
	assert.False(t, errors.Is(err, ErrInvalidForecast))
}
