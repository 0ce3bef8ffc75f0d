package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/monsefu/resplan/internal/model"
)

func init() {
	// Plain output so assertions match text, not escape codes.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatNumber(1234567), "1,234,567"},
		{FormatNumber(-1234), "-1,234"},
		{FormatCount(1234), "1,234"},
		{FormatCount(12.75), "12.8"},
		{FormatCount(2.96), "3"},
		{FormatCount(-0.5), "-0.5"},
		{FormatSoles(8050), "S/ 8,050"},
		{FormatSoles(57.5), "S/ 57.50"},
		{FormatSoles(-120), "-S/ 120"},
		{FormatHours(280), "280 h"},
		{FormatPercent(85), "85.0%"},
		{FormatGap(5), "+5"},
		{FormatGap(-3), "-3"},
		{FormatGap(0), "0"},
		{FormatDelta(10, 12.5), "-2.5"},
		{FormatMonth(11), "Noviembre"},
		{FormatMonth(13), "???"},
		{FormatPeriod(model.Period{Year: 2026, Month: 2}), "Febrero 2026"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestRenderTableAlignsUnicode(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Resource", "Gap"},
		Rows: [][]string{
			{"Policías", "-3"},
			{"---"},
			{"Serenos", "+12"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if w := len([]rune(line)); w != width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, width, line)
		}
	}
}

func samplePlan(withInventory bool) *model.Plan {
	p := &model.Plan{
		Period: model.Period{Year: 2026, Month: 11},
		Demand: model.ResourceDemand{
			Personnel:  model.PersonnelDemand{Serenos: 4, Policias: 2, Bomberos: 1, ComplaintStaff: 8},
			Vehicles:   model.VehicleDemand{Serenazgo: 2, Policia: 1, Bomberos: 1, Ambulancias: 1},
			Budget:     8050,
			LaborHours: 280,
			TotalCases: 140,
		},
		Kpis: model.KpiSet{PersonnelEfficiencyPct: 85, VehicleCoveragePct: 85, ResponseCapacityPct: 91.3, Mode: model.KpiDefault},
	}
	if withInventory {
		p.Inventory = &model.Inventory{Serenos: 2, Policias: 80, Bomberos: 45, VehiculosSerenazgo: 25, VehiculosPolicia: 15, VehiculosBomberos: 6, Ambulancias: 8}
		p.Gap = &model.GapReport{
			Personnel: model.PersonnelGap{Serenos: -2, Policias: 78, Bomberos: 44},
			Status:    model.StatusSufficient,
			CriticalDeficits: []model.CriticalDeficit{{
				Category: model.CategoryPersonnel, ResourceName: "serenos",
				DeficitAmount: 2, CurrentAmount: 2, RequiredAmount: 4, DeficitPercentage: 50,
			}},
		}
		p.Kpis.Mode = model.KpiMeasured
	} else {
		p.InventoryError = "provider inventory unavailable: timeout"
	}
	return p
}

func TestRenderPlanDegraded(t *testing.T) {
	out := RenderPlan(samplePlan(false))

	for _, want := range []string{
		"Noviembre 2026",
		"Required Personnel",
		"S/ 8,050",
		"Inventory unavailable",
		"provider inventory unavailable: timeout",
		"default values",
		"Parameters Used",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Inventory Gap") {
		t.Error("degraded plan rendered a gap table")
	}
}

func TestRenderPlanComplete(t *testing.T) {
	out := RenderPlan(samplePlan(true))

	for _, want := range []string{
		"Inventory Gap",
		"DEFICIT",
		"Critical Deficits",
		"50.0%",
		"measured against inventory",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Inventory unavailable") {
		t.Error("complete plan rendered the degraded banner")
	}
}

func TestRenderBreakdown(t *testing.T) {
	b := model.Breakdown{
		Complaints: []model.ComplaintLine{{Name: "Ruidos molestos", Count: 64, SharePct: 100, Staff: 8, Hours: 128, Cost: 3200, Priority: model.PriorityHigh}},
		Emergencies: []model.EmergencyLine{
			{Name: "Robo", Service: model.ServicePolice, Count: 40, SharePct: 80},
			{Name: "Código 9", Count: 10, SharePct: 20},
		},
		Shifts: []model.ShiftLoad{
			{Window: "00:00-06:00", SharePct: 8, EstimatedCases: 11, SuggestedStaff: 2, Intensity: model.PriorityLow},
			{Window: "12:00-18:00", SharePct: 35, EstimatedCases: 49, SuggestedStaff: 7, Intensity: model.PriorityHigh},
		},
	}
	out := RenderBreakdown(b, &model.Utilization{PersonnelPct: 12.5})

	for _, want := range []string{"Ruidos molestos", "ALTA", "policia", "Código 9", "12:00-18:00", "Personnel utilization", "12.5%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if strings.Contains(RenderBreakdown(b, nil), "Personnel utilization") {
		t.Error("utilization rendered without inventory")
	}
}
