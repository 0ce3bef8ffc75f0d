package engine

import (
	"math"
	"sort"

	"github.com/monsefu/resplan/internal/model"
)

// daysPerMonth splits a monthly case capacity into a daily one.
const daysPerMonth = 30

// shiftShares is the fixed share of daily cases per shift window.
var shiftShares = []struct {
	window string
	share  float64
}{
	{"00:00-06:00", 0.08},
	{"06:00-12:00", 0.25},
	{"12:00-18:00", 0.35},
	{"18:00-24:00", 0.32},
}

// ComputeBreakdown details a forecast per incident type and shift, using the
// ratio values recorded in d.
func ComputeBreakdown(f model.Forecast, d model.ResourceDemand) model.Breakdown {
	used := d.RatiosUsed
	b := model.Breakdown{
		Complaints:  []model.ComplaintLine{},
		Emergencies: []model.EmergencyLine{},
	}

	for _, code := range model.SortedCodes(f.Complaints) {
		n := f.Complaints[code]
		b.Complaints = append(b.Complaints, model.ComplaintLine{
			Code:     code,
			Name:     model.ComplaintName(code),
			Count:    n,
			SharePct: share(n, d.TotalComplaints),
			Staff:    units(n, used.SerenoCasesPerMonth),
			Hours:    n * used.HoursPerCase,
			Cost:     n * used.CostPerCase,
			Priority: complaintPriority(n),
		})
	}
	sort.SliceStable(b.Complaints, func(i, j int) bool { return b.Complaints[i].Count > b.Complaints[j].Count })

	for _, code := range model.SortedCodes(f.Emergencies) {
		n := f.Emergencies[code]
		svc, _ := ServiceFor(code)
		b.Emergencies = append(b.Emergencies, model.EmergencyLine{
			Code:     code,
			Name:     model.EmergencyName(code),
			Service:  svc,
			Count:    n,
			SharePct: share(n, d.TotalEmergencies),
		})
	}
	sort.SliceStable(b.Emergencies, func(i, j int) bool { return b.Emergencies[i].Count > b.Emergencies[j].Count })

	perShiftCapacity := used.SerenoCasesPerMonth / daysPerMonth
	for _, s := range shiftShares {
		cases := int(math.Round(d.TotalCases * s.share))
		b.Shifts = append(b.Shifts, model.ShiftLoad{
			Window:         s.window,
			SharePct:       s.share * 100,
			EstimatedCases: cases,
			SuggestedStaff: units(float64(cases), perShiftCapacity),
			Intensity:      shiftIntensity(s.share),
		})
	}

	if d.TotalCases > 0 {
		b.Efficiency.CostPerCase = float64(d.Budget) / d.TotalCases
		b.Efficiency.HoursPerCase = d.LaborHours / d.TotalCases
	}
	b.Efficiency.DailyHours = d.LaborHours / used.WorkableDaysPerMonth
	return b
}

// ComputeUtilization compares demand totals against inventory totals.
// A nil inventory yields nil.
func ComputeUtilization(d model.ResourceDemand, inv *model.Inventory) *model.Utilization {
	if inv == nil {
		return nil
	}
	staff, vehicles := inv.PersonnelTotal(), inv.VehicleTotal()
	u := &model.Utilization{}
	if staff > 0 {
		u.PersonnelPct = math.Min(100, float64(d.Personnel.Total())/float64(staff)*100)
		u.SpareCapacityPct = math.Max(0, float64(staff-d.Personnel.Total())/float64(staff)*100)
	}
	if vehicles > 0 {
		u.VehiclePct = math.Min(100, float64(d.Vehicles.Total())/float64(vehicles)*100)
	}
	return u
}

func share(n, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return n / total * 100
}

func complaintPriority(n float64) string {
	switch {
	case n > 50:
		return model.PriorityHigh
	case n > 20:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func shiftIntensity(share float64) string {
	switch {
	case share > 0.3:
		return model.PriorityHigh
	case share > 0.2:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
