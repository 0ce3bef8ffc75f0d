package cli

import (
	"fmt"
	"strings"

	"github.com/monsefu/resplan/internal/model"
)

// RenderPlan renders every section of a plan. Without inventory the gap
// sections are replaced by a warning banner.
func RenderPlan(p *model.Plan) string {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("RESOURCE PLAN  %s", FormatPeriod(p.Period))))
	b.WriteString("\n\n")
	b.WriteString(RenderDemand(p.Demand))

	if p.Gap == nil || p.Inventory == nil {
		msg := "Inventory unavailable, showing demand only"
		if p.InventoryError != "" {
			msg += ": " + p.InventoryError
		}
		b.WriteString(RenderBanner(BannerWarn, msg))
		b.WriteString("\n\n")
	} else {
		b.WriteString(RenderGap(p.Demand, *p.Inventory, p.Gap))
		b.WriteString(RenderDeficits(p.Gap.CriticalDeficits))
	}

	b.WriteString(RenderKpis(p.Kpis))
	b.WriteString(RenderRatiosUsed(p.Demand.RatiosUsed))
	return b.String()
}

// RenderDemand renders required personnel, vehicles and cost figures.
func RenderDemand(d model.ResourceDemand) string {
	var b strings.Builder

	personnel := [][]string{
		{"Serenos", FormatNumber(int64(d.Personnel.Serenos))},
		{"Policías", FormatNumber(int64(d.Personnel.Policias))},
		{"Bomberos", FormatNumber(int64(d.Personnel.Bomberos))},
		{"Personal de denuncias", FormatNumber(int64(d.Personnel.ComplaintStaff))},
		{"---"},
		{"TOTAL", FormatNumber(int64(d.Personnel.Total()))},
	}
	b.WriteString(RenderTable(Table{
		Title:   "Required Personnel",
		Headers: []string{"Role", "Required"},
		Rows:    personnel,
	}))

	vehicles := [][]string{
		{"Vehículos Serenazgo", FormatNumber(int64(d.Vehicles.Serenazgo))},
		{"Vehículos Policía", FormatNumber(int64(d.Vehicles.Policia))},
		{"Vehículos Bomberos", FormatNumber(int64(d.Vehicles.Bomberos))},
		{"Ambulancias", FormatNumber(int64(d.Vehicles.Ambulancias))},
		{"---"},
		{"TOTAL", FormatNumber(int64(d.Vehicles.Total()))},
	}
	b.WriteString(RenderTable(Table{
		Title:   "Required Vehicles",
		Headers: []string{"Vehicle", "Required"},
		Rows:    vehicles,
	}))

	b.WriteString(RenderKV("Total cases", FormatCount(d.TotalCases)))
	b.WriteString("\n")
	b.WriteString(RenderKV("Complaints / emergencies",
		FormatCount(d.TotalComplaints)+" / "+FormatCount(d.TotalEmergencies)))
	b.WriteString("\n")
	if d.UnmappedEmergencies > 0 {
		b.WriteString(RenderKV("Emergencies without service", FormatCount(d.UnmappedEmergencies)))
		b.WriteString("\n")
	}
	b.WriteString(RenderKV("Monthly budget", FormatSoles(float64(d.Budget))))
	b.WriteString("\n")
	b.WriteString(RenderKV("Labor hours", FormatHours(d.LaborHours)))
	b.WriteString("\n\n")
	return b.String()
}

type gapRow struct {
	label    string
	required int
	current  int
	gap      int
}

func gapRows(d model.ResourceDemand, inv model.Inventory, g *model.GapReport) (personnel, vehicles []gapRow) {
	personnel = []gapRow{
		{"Serenos", d.Personnel.Serenos, inv.Serenos, g.Personnel.Serenos},
		{"Policías", d.Personnel.Policias, inv.Policias, g.Personnel.Policias},
		{"Bomberos", d.Personnel.Bomberos, inv.Bomberos, g.Personnel.Bomberos},
	}
	vehicles = []gapRow{
		{"Vehículos Serenazgo", d.Vehicles.Serenazgo, inv.VehiculosSerenazgo, g.Vehicles.Serenazgo},
		{"Vehículos Policía", d.Vehicles.Policia, inv.VehiculosPolicia, g.Vehicles.Policia},
		{"Vehículos Bomberos", d.Vehicles.Bomberos, inv.VehiculosBomberos, g.Vehicles.Bomberos},
		{"Ambulancias", d.Vehicles.Ambulancias, inv.Ambulancias, g.Vehicles.Ambulancias},
	}
	return personnel, vehicles
}

func gapStatus(gap int) string {
	if gap < 0 {
		return "DEFICIT"
	}
	return "OK"
}

// RenderGap renders inventory against demand per resource line.
func RenderGap(d model.ResourceDemand, inv model.Inventory, g *model.GapReport) string {
	personnel, vehicles := gapRows(d, inv, g)

	rows := make([][]string, 0, len(personnel)+len(vehicles)+4)
	for _, r := range personnel {
		rows = append(rows, []string{r.label, FormatNumber(int64(r.required)), FormatNumber(int64(r.current)), FormatGap(r.gap), gapStatus(r.gap)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Personnel", FormatNumber(int64(d.Personnel.Serenos + d.Personnel.Policias + d.Personnel.Bomberos)),
		FormatNumber(int64(g.InventoryPersonnel)), FormatGap(g.PersonnelTotalGap), gapStatus(g.PersonnelTotalGap)})
	rows = append(rows, []string{"---"})
	for _, r := range vehicles {
		rows = append(rows, []string{r.label, FormatNumber(int64(r.required)), FormatNumber(int64(r.current)), FormatGap(r.gap), gapStatus(r.gap)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Vehicles", FormatNumber(int64(d.Vehicles.Total())),
		FormatNumber(int64(g.InventoryVehicles)), FormatGap(g.VehicleTotalGap), gapStatus(g.VehicleTotalGap)})

	var b strings.Builder
	b.WriteString(RenderTable(Table{
		Title:   "Inventory Gap",
		Headers: []string{"Resource", "Required", "Available", "Gap", "Status"},
		Rows:    rows,
	}))
	if g.Status == model.StatusSufficient {
		b.WriteString(RenderBanner(BannerOK, "Inventory covers the forecast demand"))
	} else {
		b.WriteString(RenderBanner(BannerFail, "Inventory is short of the forecast demand"))
	}
	b.WriteString("\n\n")
	return b.String()
}

// RenderDeficits renders critical deficits, most severe first. It returns an
// empty string when there are none.
func RenderDeficits(deficits []model.CriticalDeficit) string {
	if len(deficits) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(deficits))
	for _, d := range deficits {
		rows = append(rows, []string{
			model.InventoryLabel(d.ResourceName),
			string(d.Category),
			FormatNumber(int64(d.CurrentAmount)),
			FormatNumber(int64(d.RequiredAmount)),
			FormatNumber(int64(d.DeficitAmount)),
			FormatPercent(d.DeficitPercentage),
		})
	}
	return RenderTable(Table{
		Title:   "Critical Deficits",
		Headers: []string{"Resource", "Category", "Available", "Required", "Short", "Deficit"},
		Rows:    rows,
	}) + "\n"
}

// RenderKpis renders the KPI set with its mode.
func RenderKpis(k model.KpiSet) string {
	mode := "measured against inventory"
	if k.Mode == model.KpiDefault {
		mode = "default values, inventory unavailable"
	}
	rows := [][]string{
		{"Personnel efficiency", FormatPercent(k.PersonnelEfficiencyPct)},
		{"Vehicle coverage", FormatPercent(k.VehicleCoveragePct)},
		{"Response capacity", FormatPercent(k.ResponseCapacityPct)},
		{"Cases per staff", fmt.Sprintf("%.1f", k.CasesPerPersonnel)},
	}
	return RenderTable(Table{
		Title:   "KPIs (" + mode + ")",
		Headers: []string{"Indicator", "Value"},
		Rows:    rows,
	}) + "\n"
}

// RenderRatiosUsed renders the ratio values a demand was computed with.
func RenderRatiosUsed(r model.RatiosUsed) string {
	rows := [][]string{
		{"SERENO", "llamadas_mes", FormatCount(r.SerenoCallsPerMonth)},
		{"SERENO", "casos_mes", FormatCount(r.SerenoCasesPerMonth)},
		{"POLICIA", "llamadas_mes", FormatCount(r.PoliciaCallsPerMonth)},
		{"BOMBERO", "llamadas_mes", FormatCount(r.BomberoCallsPerMonth)},
		{"AMBULANCIA", "llamadas_mes", FormatCount(r.AmbulanceCallsPerMonth)},
		{"VEHICULO_SERENAZGO", "llamadas_mes", FormatCount(r.PatrolCarCallsPerMonth)},
		{"VEHICULO_POLICIA", "llamadas_mes", FormatCount(r.PoliceCarCallsPerMonth)},
		{"VEHICULO_BOMBEROS", "llamadas_mes", FormatCount(r.FireTruckCallsPerMonth)},
		{"---"},
		{"PRESUPUESTO", "costo_caso", FormatSoles(r.CostPerCase)},
		{"PRESUPUESTO", "overhead", fmt.Sprintf("%.2f", r.Overhead)},
		{"TIEMPO", "horas_caso", FormatCount(r.HoursPerCase)},
		{"TIEMPO", "dias_laborables", FormatCount(r.WorkableDaysPerMonth)},
	}
	return RenderTable(Table{
		Title:   "Parameters Used",
		Headers: []string{"Category", "Parameter", "Value"},
		Rows:    rows,
	}) + "\n"
}

// RenderBreakdown renders per-type volumes, the shift distribution and unit
// figures. u may be nil.
func RenderBreakdown(b model.Breakdown, u *model.Utilization) string {
	var out strings.Builder

	if len(b.Complaints) > 0 {
		rows := make([][]string, 0, len(b.Complaints))
		for _, c := range b.Complaints {
			rows = append(rows, []string{
				c.Name,
				FormatCount(c.Count),
				FormatPercent(c.SharePct),
				FormatNumber(int64(c.Staff)),
				FormatHours(c.Hours),
				FormatSoles(c.Cost),
				c.Priority,
			})
		}
		out.WriteString(RenderTable(Table{
			Title:   "Complaints",
			Headers: []string{"Type", "Count", "Share", "Staff", "Hours", "Cost", "Priority"},
			Rows:    rows,
		}))
		out.WriteString("\n")
	}

	if len(b.Emergencies) > 0 {
		rows := make([][]string, 0, len(b.Emergencies))
		for _, e := range b.Emergencies {
			svc := string(e.Service)
			if svc == "" {
				svc = "-"
			}
			rows = append(rows, []string{e.Name, svc, FormatCount(e.Count), FormatPercent(e.SharePct)})
		}
		out.WriteString(RenderTable(Table{
			Title:   "Emergencies",
			Headers: []string{"Type", "Service", "Count", "Share"},
			Rows:    rows,
		}))
		out.WriteString("\n")
	}

	if len(b.Shifts) > 0 {
		rows := make([][]string, 0, len(b.Shifts))
		maxCases := 0
		for _, s := range b.Shifts {
			maxCases = max(maxCases, s.EstimatedCases)
		}
		for _, s := range b.Shifts {
			rows = append(rows, []string{
				s.Window,
				FormatPercent(s.SharePct),
				FormatNumber(int64(s.EstimatedCases)),
				FormatNumber(int64(s.SuggestedStaff)),
				s.Intensity,
			})
		}
		out.WriteString(RenderTable(Table{
			Title:   "Daily Shifts",
			Headers: []string{"Window", "Share", "Cases", "Staff", "Intensity"},
			Rows:    rows,
		}))
		for _, s := range b.Shifts {
			out.WriteString(RenderHorizontalBar(s.Window, float64(s.EstimatedCases), float64(maxCases), 30))
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}

	out.WriteString(RenderKV("Cost per case", FormatSoles(b.Efficiency.CostPerCase)))
	out.WriteString("\n")
	out.WriteString(RenderKV("Hours per case", FormatHours(b.Efficiency.HoursPerCase)))
	out.WriteString("\n")
	out.WriteString(RenderKV("Daily hours", FormatHours(b.Efficiency.DailyHours)))
	out.WriteString("\n")

	if u != nil {
		out.WriteString(RenderKV("Personnel utilization", FormatPercent(u.PersonnelPct)))
		out.WriteString("\n")
		out.WriteString(RenderKV("Vehicle utilization", FormatPercent(u.VehiclePct)))
		out.WriteString("\n")
		out.WriteString(RenderKV("Spare capacity", FormatPercent(u.SpareCapacityPct)))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	return out.String()
}
