package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type stubPlanner struct {
	plan *model.Plan
	err  error
}

func (s stubPlanner) Plan(_ context.Context, period model.Period) (*model.Plan, error) {
	if s.plan != nil {
		p := *s.plan
		p.Period = period
		return &p, s.err
	}
	return nil, s.err
}

var nov2026 = model.Period{Year: 2026, Month: 11}

func degradedPlan() *model.Plan {
	return &model.Plan{
		Period: nov2026,
		Demand: model.ResourceDemand{
			Personnel:  model.PersonnelDemand{Serenos: 4, Policias: 2, Bomberos: 1},
			Budget:     8050,
			TotalCases: 140,
		},
		Kpis:           model.KpiSet{PersonnelEfficiencyPct: 85, VehicleCoveragePct: 85, ResponseCapacityPct: 90, Mode: model.KpiDefault},
		InventoryError: "inventory service down",
	}
}

func newTestApp(p Planner, opts Options) App {
	a := NewApp(p, nov2026, opts)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	return m.(App)
}

func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return app
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadPlanCmd(t *testing.T) {
	cmd := loadPlanCmd(stubPlanner{plan: degradedPlan()}, nov2026, defaultPlanTimeout)
	msg, ok := cmd().(PlanLoadedMsg)
	if !ok {
		t.Fatalf("cmd returned %T", cmd())
	}
	if msg.Period != nov2026 || msg.Plan == nil || msg.Err != nil {
		t.Fatalf("unexpected msg: %+v", msg)
	}
}

func TestPlanLoadedTransitions(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	if !a.loading || a.State() != "" {
		t.Fatalf("new app should be loading, state %q", a.State())
	}
	if !strings.Contains(a.View(), "Planning Noviembre 2026") {
		t.Error("loading view missing period")
	}

	a = send(t, a, PlanLoadedMsg{Period: nov2026, Plan: degradedPlan()})
	if a.loading {
		t.Fatal("still loading after PlanLoadedMsg")
	}
	if got := a.State(); got != pipeline.StateDegraded {
		t.Errorf("state = %q, want %q", got, pipeline.StateDegraded)
	}

	a = send(t, a, PlanLoadedMsg{Period: nov2026, Err: errors.New("forecast service down")})
	if got := a.State(); got != pipeline.StateFailed {
		t.Errorf("state = %q, want %q", got, pipeline.StateFailed)
	}
	view := a.View()
	for _, want := range []string{"Plan failed", "forecast service down", "FAILED"} {
		if !strings.Contains(view, want) {
			t.Errorf("failed view missing %q", want)
		}
	}

	a = send(t, a, PlanLoadedMsg{Period: nov2026})
	if got := a.State(); got != pipeline.StateNoData {
		t.Errorf("state = %q, want %q", got, pipeline.StateNoData)
	}
}

func TestStalePlanIgnored(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	a = send(t, a, key("n"))
	if want := (model.Period{Year: 2026, Month: 12}); a.period != want {
		t.Fatalf("period = %v, want %v", a.period, want)
	}

	a = send(t, a, PlanLoadedMsg{Period: nov2026, Plan: degradedPlan()})
	if !a.loading || a.plan != nil {
		t.Error("result for the previous month replaced the pending one")
	}
}

func TestMonthNavigation(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	a = send(t, a, key("p"))
	a = send(t, a, key("p"))
	if want := (model.Period{Year: 2026, Month: 9}); a.period != want {
		t.Errorf("period = %v, want %v", a.period, want)
	}

	edge := NewApp(stubPlanner{}, model.Period{Year: pipeline.MinYear, Month: 1}, Options{})
	edge = send(t, edge, PlanLoadedMsg{Period: edge.period})
	edge = send(t, edge, key("p"))
	if edge.period.Year != pipeline.MinYear || edge.loading {
		t.Errorf("moved before the first supported month: %v", edge.period)
	}
}

func TestRefreshInvalidates(t *testing.T) {
	calls := 0
	a := newTestApp(stubPlanner{}, Options{Refresh: func() { calls++ }})
	a = send(t, a, PlanLoadedMsg{Period: nov2026, Plan: degradedPlan()})

	m, cmd := a.Update(key("r"))
	a = m.(App)
	if calls != 1 {
		t.Errorf("refresh calls = %d, want 1", calls)
	}
	if !a.loading || cmd == nil {
		t.Error("refresh did not start a reload")
	}
}

func TestTabSwitching(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	a = send(t, a, PlanLoadedMsg{Period: nov2026, Plan: degradedPlan()})

	a = send(t, a, key("g"))
	if a.activeTab != 1 {
		t.Fatalf("activeTab = %d, want 1", a.activeTab)
	}
	if !strings.Contains(a.View(), "inventory service down") {
		t.Error("gap tab did not explain the missing inventory")
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	if a.activeTab != 0 {
		t.Errorf("activeTab = %d after left, want 0", a.activeTab)
	}
	a = send(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	if a.activeTab != 3 {
		t.Errorf("left should wrap to the last tab, got %d", a.activeTab)
	}
	if !strings.Contains(a.View(), "Parameters Used") {
		t.Error("parameters tab missing ratios table")
	}

	a = send(t, a, tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if a.activeTab != 0 {
		t.Errorf("click on first tab gave %d", a.activeTab)
	}
}

func TestHelpAndNarrowViews(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	a = send(t, a, PlanLoadedMsg{Period: nov2026, Plan: degradedPlan()})

	a = send(t, a, key("?"))
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Error("help view not shown")
	}
	a = send(t, a, key("x"))
	if a.showHelp {
		t.Error("any key should close help")
	}

	a = send(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(a.View(), "too narrow") {
		t.Error("narrow terminal not reported")
	}
}

func TestQuit(t *testing.T) {
	a := newTestApp(stubPlanner{}, Options{})
	_, cmd := a.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
