package engine

import (
	"sort"

	"github.com/monsefu/resplan/internal/model"
)

// criticalDeficitPct is the share of the requirement a resource must be short by
// (strictly more than) to be reported as critical.
const criticalDeficitPct = 20

type gapLine struct {
	category model.Category
	name     string
	current  int
	required int
	gap      *int
}

// ComputeGap compares demand against inventory. A nil inventory yields a nil report.
func ComputeGap(d model.ResourceDemand, inv *model.Inventory) *model.GapReport {
	if inv == nil {
		return nil
	}
	report := &model.GapReport{
		InventoryPersonnel: inv.PersonnelTotal(),
		InventoryVehicles:  inv.VehicleTotal(),
		CriticalDeficits:   []model.CriticalDeficit{},
	}

	lines := []gapLine{
		{model.CategoryPersonnel, "serenos", inv.Serenos, d.Personnel.Serenos, &report.Personnel.Serenos},
		{model.CategoryPersonnel, "policias", inv.Policias, d.Personnel.Policias, &report.Personnel.Policias},
		{model.CategoryPersonnel, "bomberos", inv.Bomberos, d.Personnel.Bomberos, &report.Personnel.Bomberos},
		{model.CategoryVehicles, "vehiculos_serenazgo", inv.VehiculosSerenazgo, d.Vehicles.Serenazgo, &report.Vehicles.Serenazgo},
		{model.CategoryVehicles, "vehiculos_policia", inv.VehiculosPolicia, d.Vehicles.Policia, &report.Vehicles.Policia},
		{model.CategoryVehicles, "vehiculos_bomberos", inv.VehiculosBomberos, d.Vehicles.Bomberos, &report.Vehicles.Bomberos},
		{model.CategoryVehicles, "ambulancias", inv.Ambulancias, d.Vehicles.Ambulancias, &report.Vehicles.Ambulancias},
	}

	for _, l := range lines {
		*l.gap = l.current - l.required
		if l.category == model.CategoryPersonnel {
			report.PersonnelTotalGap += *l.gap
		} else {
			report.VehicleTotalGap += *l.gap
		}
		if isCritical(l.current, l.required) {
			short := l.required - l.current
			report.CriticalDeficits = append(report.CriticalDeficits, model.CriticalDeficit{
				Category:          l.category,
				ResourceName:      l.name,
				DeficitAmount:     short,
				CurrentAmount:     l.current,
				RequiredAmount:    l.required,
				DeficitPercentage: float64(short) / float64(l.required) * 100,
			})
		}
	}

	// lines are already in category then resource order, so a stable sort on
	// percentage alone yields the full tie-break.
	sort.SliceStable(report.CriticalDeficits, func(i, j int) bool {
		return report.CriticalDeficits[i].DeficitPercentage > report.CriticalDeficits[j].DeficitPercentage
	})

	report.Status = model.StatusDeficit
	if report.PersonnelTotalGap >= 0 && report.VehicleTotalGap >= 0 {
		report.Status = model.StatusSufficient
	}
	return report
}

// isCritical compares in integers so the 20% boundary is exact.
func isCritical(current, required int) bool {
	if required <= 0 || current >= required {
		return false
	}
	return (required-current)*100 > required*criticalDeficitPct
}
