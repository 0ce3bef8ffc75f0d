package engine

import (
	"math"

	"github.com/monsefu/resplan/internal/model"
)

// NeutralKpiPct is reported for efficiency and coverage when no inventory is available.
const NeutralKpiPct = 85.0

// ComputeKpis derives performance indicators from demand and an optional gap report.
func ComputeKpis(d model.ResourceDemand, gap *model.GapReport) model.KpiSet {
	k := model.KpiSet{
		PersonnelEfficiencyPct: NeutralKpiPct,
		VehicleCoveragePct:     NeutralKpiPct,
		Mode:                   model.KpiDefault,
	}
	totalPersonnel := d.Personnel.Total()
	if gap != nil {
		k.Mode = model.KpiMeasured
		k.PersonnelEfficiencyPct = coverage(totalPersonnel, gap.PersonnelTotalGap)
		k.VehicleCoveragePct = coverage(d.Vehicles.Total(), gap.VehicleTotalGap)
	}
	k.ResponseCapacityPct = math.Round((k.PersonnelEfficiencyPct+k.VehicleCoveragePct)/2*10) / 10
	if totalPersonnel > 0 {
		k.CasesPerPersonnel = d.TotalCases / float64(totalPersonnel)
	}
	return k
}

// coverage is available/required as a percentage clamped to [0, 100].
// Nothing required means fully covered.
func coverage(required, gap int) float64 {
	if required <= 0 {
		return 100
	}
	pct := float64(required+gap) / float64(required) * 100
	return math.Max(0, math.Min(100, pct))
}
