// Package engine computes resource demand, gaps and KPIs from a forecast.
// Everything here is pure: no I/O, no caching, no package state.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/monsefu/resplan/internal/model"
)

// MaxCount is the largest per-type monthly count a forecast may carry.
const MaxCount = 1e12

// Upper bounds for computed figures. Both are exact in float64 and fit int64.
const (
	maxUnits  = 1e15
	maxBudget = 1e15
)

// ValidateForecast rejects negative, NaN, infinite and oversized counts and
// months outside 1..12.
func ValidateForecast(f model.Forecast) error {
	if f.Period.Month < 1 || f.Period.Month > 12 {
		return &InvalidForecastError{Field: "month", Value: float64(f.Period.Month), Err: ErrMonthRange}
	}
	for _, part := range []struct {
		field  string
		counts map[model.TypeCode]float64
	}{
		{"denuncias", f.Complaints},
		{"emergencias", f.Emergencies},
	} {
		for _, code := range model.SortedCodes(part.counts) {
			v := part.counts[code]
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				return &InvalidForecastError{Field: part.field, Code: code, Value: v, Err: ErrNonFiniteCount}
			case v < 0:
				return &InvalidForecastError{Field: part.field, Code: code, Value: v, Err: ErrNegativeCount}
			case v > MaxCount:
				return &InvalidForecastError{Field: part.field, Code: code, Value: v, Err: ErrCountTooLarge}
			}
		}
	}
	return nil
}

// ValidateRatios reports every ratio that demand computation needs but cannot use.
func ValidateRatios(r model.OperationalRatios) error {
	_, err := readRatios(r)
	return err
}

// ComputeDemand converts a monthly forecast into required staff, vehicles, budget and hours.
func ComputeDemand(f model.Forecast, r model.OperationalRatios) (model.ResourceDemand, error) {
	if err := ValidateForecast(f); err != nil {
		return model.ResourceDemand{}, err
	}
	used, err := readRatios(r)
	if err != nil {
		return model.ResourceDemand{}, err
	}

	complaints := model.Sum(f.Complaints)
	emergencies := model.Sum(f.Emergencies)
	load, unmapped := partitionEmergencies(f.Emergencies)
	cases := complaints + emergencies

	sz := &sizer{}
	personnel := model.PersonnelDemand{
		Serenos:        sz.units("serenos", load.Patrol, used.SerenoCallsPerMonth),
		Policias:       sz.units("policias", load.Police, used.PoliciaCallsPerMonth),
		Bomberos:       sz.units("bomberos", load.Fire, used.BomberoCallsPerMonth),
		ComplaintStaff: sz.units("personal_denuncias", complaints, used.SerenoCasesPerMonth),
	}
	vehicles := model.VehicleDemand{
		Serenazgo:   sz.units("vehiculos_serenazgo", load.Patrol, used.PatrolCarCallsPerMonth),
		Policia:     sz.units("vehiculos_policia", load.Police, used.PoliceCarCallsPerMonth),
		Bomberos:    sz.units("vehiculos_bomberos", load.Fire, used.FireTruckCallsPerMonth),
		Ambulancias: sz.units("ambulancias", load.Ambulance, used.AmbulanceCallsPerMonth),
	}
	budget := sz.budget(cases * used.CostPerCase * used.Overhead)
	// Shift staffing divides by a thirtieth of the monthly capacity.
	sz.units("personal_turno", cases, used.SerenoCasesPerMonth/daysPerMonth)
	if sz.err != nil {
		return model.ResourceDemand{}, sz.err
	}

	return model.ResourceDemand{
		Personnel:            personnel,
		Vehicles:             vehicles,
		Budget:               budget,
		LaborHours:           cases * used.HoursPerCase,
		TotalCases:           cases,
		TotalComplaints:      complaints,
		TotalEmergencies:     emergencies,
		UnmappedEmergencies:  unmapped,
		EmergenciesByService: load,
		RatiosUsed:           used,
	}, nil
}

// ceilTolerance is the relative distance from a whole number under which a
// quotient counts as that number, so 0.30000000000000004/0.3 is one unit.
const ceilTolerance = 1e-12

// units is the number of whole units needed to cover volume at capacity per unit.
// Any positive volume needs at least one unit. Callers bound the quotient.
func units(volume, capacity float64) int {
	if volume <= 0 {
		return 0
	}
	q := volume / capacity
	n := math.Ceil(q)
	if r := math.Round(q); r >= 1 && math.Abs(q-r) <= ceilTolerance*r {
		n = r
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

// sizer computes demand figures and keeps the first one out of range.
type sizer struct {
	err error
}

func (s *sizer) units(name string, volume, capacity float64) int {
	if s.err != nil {
		return 0
	}
	if q := volume / capacity; q > maxUnits {
		s.err = fmt.Errorf("%w: %s needs %.3g units", ErrDemandOverflow, name, q)
		return 0
	}
	return units(volume, capacity)
}

func (s *sizer) budget(amount float64) int64 {
	if s.err != nil {
		return 0
	}
	if amount > maxBudget {
		s.err = fmt.Errorf("%w: budget %.3g", ErrDemandOverflow, amount)
		return 0
	}
	return int64(math.Round(amount))
}

// ratioReader collects every unusable ratio instead of stopping at the first.
type ratioReader struct {
	r    model.OperationalRatios
	errs []error
}

func readRatios(r model.OperationalRatios) (model.RatiosUsed, error) {
	rr := &ratioReader{r: r}
	used := model.RatiosUsed{
		SerenoCallsPerMonth:    rr.calls(model.RoleSereno),
		SerenoCasesPerMonth:    rr.cases(model.RoleSereno),
		PoliciaCallsPerMonth:   rr.calls(model.RolePolicia),
		BomberoCallsPerMonth:   rr.calls(model.RoleBombero),
		AmbulanceCallsPerMonth: rr.calls(model.RoleAmbulancia),
		PatrolCarCallsPerMonth: rr.calls(model.RoleVehiculoSerenazgo),
		PoliceCarCallsPerMonth: rr.calls(model.RoleVehiculoPolicia),
		FireTruckCallsPerMonth: rr.calls(model.RoleVehiculoBomberos),
	}
	var budget model.BudgetRatio
	if r.Budget != nil {
		budget = *r.Budget
	}
	used.CostPerCase = rr.check(model.CategoryBudget, model.ParamCostPerCase, budget.CostPerCase)
	used.Overhead = rr.check(model.CategoryBudget, model.ParamOverhead, budget.Overhead)

	var tm model.TimeRatio
	if r.Time != nil {
		tm = *r.Time
	}
	used.HoursPerCase = rr.check(model.CategoryTime, model.ParamHoursPerCase, tm.HoursPerCase)
	used.WorkableDaysPerMonth = rr.check(model.CategoryTime, model.ParamWorkableDays, tm.WorkableDaysPerMonth)

	return used, errors.Join(rr.errs...)
}

func (rr *ratioReader) calls(key model.RoleKey) float64 {
	return rr.check(string(key), model.ParamCallsPerMonth, rr.r.Roles[key].CallsPerMonth)
}

func (rr *ratioReader) cases(key model.RoleKey) float64 {
	return rr.check(string(key), model.ParamCasesPerMonth, rr.r.Roles[key].CasesPerMonth)
}

func (rr *ratioReader) check(category, param string, v *float64) float64 {
	if v == nil {
		rr.errs = append(rr.errs, &MissingRatioError{Category: category, Param: param})
		return 0
	}
	if !(*v > 0) || math.IsInf(*v, 0) {
		rr.errs = append(rr.errs, &MissingRatioError{Category: category, Param: param, Present: true, Value: *v})
		return 0
	}
	return *v
}
