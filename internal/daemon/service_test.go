package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monsefu/resplan/internal/engine"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
	"github.com/monsefu/resplan/internal/provider"
)

type fakePlanner struct {
	plans map[model.Period]*model.Plan
	err   error
	calls []model.Period
}

func (f *fakePlanner) Plan(_ context.Context, p model.Period) (*model.Plan, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	if plan, ok := f.plans[p]; ok {
		return plan, nil
	}
	return nil, fmt.Errorf("no plan for %s", p)
}

type fakeStore struct {
	saved []string
}

func (f *fakeStore) SavePlan(_ context.Context, p *model.Plan, state string) error {
	f.saved = append(f.saved, p.ID+":"+state)
	return nil
}

func testPlan(id string, period model.Period, serenos int, withGap bool) *model.Plan {
	p := &model.Plan{
		ID:     id,
		Period: period,
		Demand: model.ResourceDemand{
			Personnel:  model.PersonnelDemand{Serenos: serenos, Policias: 2},
			Vehicles:   model.VehicleDemand{Serenazgo: 1},
			Budget:     8050,
			TotalCases: 140,
		},
	}
	if withGap {
		p.Gap = &model.GapReport{
			PersonnelTotalGap: 100 - serenos,
			VehicleTotalGap:   10,
			Status:            model.StatusSufficient,
		}
	}
	return p
}

var dec2026 = model.Period{Year: 2026, Month: 12}

func newTestService(planner Planner, store PlanStore) *Service {
	s := New(Config{EventsBuffer: 10}, planner, store)
	s.now = func() time.Time { return time.Date(2026, 11, 1, 6, 0, 0, 0, time.UTC) }
	return s
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		PersonnelRequired: 10,
		VehiclesRequired:  4,
		BudgetMonthly:     8050,
		TotalCases:        140,
		PersonnelGap:      5,
		CriticalDeficits:  0,
	}
	curr := Snapshot{
		PersonnelRequired: 13,
		VehiclesRequired:  4,
		BudgetMonthly:     9200,
		TotalCases:        160,
		PersonnelGap:      2,
		CriticalDeficits:  1,
	}

	delta := diffSnapshots(prev, curr)
	if delta.PersonnelRequired != 3 {
		t.Fatalf("PersonnelRequired delta = %d, want 3", delta.PersonnelRequired)
	}
	if delta.VehiclesRequired != 0 {
		t.Fatalf("VehiclesRequired delta = %d, want 0", delta.VehiclesRequired)
	}
	if delta.BudgetMonthly != 1150 {
		t.Fatalf("BudgetMonthly delta = %d, want 1150", delta.BudgetMonthly)
	}
	if delta.PersonnelGap != -3 {
		t.Fatalf("PersonnelGap delta = %d, want -3", delta.PersonnelGap)
	}
	if delta.CriticalDeficits != 1 {
		t.Fatalf("CriticalDeficits delta = %d, want 1", delta.CriticalDeficits)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, &fakePlanner{}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPrecomputePlansNextMonth(t *testing.T) {
	planner := &fakePlanner{plans: map[model.Period]*model.Plan{
		dec2026: testPlan("a", dec2026, 4, true),
	}}
	store := &fakeStore{}
	s := newTestService(planner, store)

	s.precompute(context.Background())

	if len(planner.calls) != 1 || planner.calls[0] != dec2026 {
		t.Fatalf("planned %v, want [%s]", planner.calls, dec2026)
	}
	if len(store.saved) != 1 || store.saved[0] != "a:complete" {
		t.Fatalf("saved = %v, want [a:complete]", store.saved)
	}
	st := s.snapshotStatus()
	if st.RunCount != 1 || st.Latest.PlanID != "a" {
		t.Fatalf("status = %+v, want one run with plan a", st)
	}
}

func TestRunOnceEvents(t *testing.T) {
	planner := &fakePlanner{plans: map[model.Period]*model.Plan{}}
	s := newTestService(planner, nil)
	ctx := context.Background()

	planner.plans[dec2026] = testPlan("a", dec2026, 4, false)
	s.runOnce(ctx, dec2026)

	// Same numbers again: no event.
	planner.plans[dec2026] = testPlan("b", dec2026, 4, false)
	s.runOnce(ctx, dec2026)

	planner.plans[dec2026] = testPlan("c", dec2026, 4, true)
	s.runOnce(ctx, dec2026)

	planner.plans[dec2026] = testPlan("d", dec2026, 7, true)
	s.runOnce(ctx, dec2026)

	planner.err = errors.New("forecast service down")
	s.runOnce(ctx, dec2026)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	want := []string{EventPlanDegraded, EventPlan, EventPlanChanged, EventPlanFailed}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Fatalf("event %d type = %q, want %q", i, ev.Type, want[i])
		}
		if ev.ID != int64(i+1) {
			t.Fatalf("event %d id = %d, want %d", i, ev.ID, i+1)
		}
	}
	if events[2].Delta.PersonnelRequired != 3 {
		t.Fatalf("changed delta = %+v, want PersonnelRequired 3", events[2].Delta)
	}
	if events[3].Error == "" {
		t.Fatal("failed event has no error")
	}

	st := s.snapshotStatus()
	if st.LastError != "forecast service down" {
		t.Fatalf("LastError = %q", st.LastError)
	}
	if st.Latest.PlanID != "d" {
		t.Fatalf("latest plan = %q, want d", st.Latest.PlanID)
	}
}

func TestHandlePlan(t *testing.T) {
	good := &fakePlanner{plans: map[model.Period]*model.Plan{
		dec2026: testPlan("a", dec2026, 4, false),
	}}

	tests := []struct {
		name    string
		planner Planner
		query   string
		status  int
	}{
		{"ok", good, "year=2026&month=12", http.StatusOK},
		{"missing month", good, "year=2026", http.StatusBadRequest},
		{"month out of range", good, "year=2026&month=13", http.StatusBadRequest},
		{"invalid forecast", &fakePlanner{err: &engine.InvalidForecastError{Field: "denuncias", Code: 1, Value: -1, Err: engine.ErrNegativeCount}}, "year=2026&month=12", http.StatusUnprocessableEntity},
		{"missing ratio", &fakePlanner{err: &engine.MissingRatioError{Category: "SERENO", Param: "casos_mes"}}, "year=2026&month=12", http.StatusUnprocessableEntity},
		{"ratios unavailable", &fakePlanner{err: &provider.ProviderUnavailableError{Name: "ratios", Err: errors.New("timeout")}}, "year=2026&month=12", http.StatusServiceUnavailable},
		{"upstream error", &fakePlanner{err: errors.New("boom")}, "year=2026&month=12", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{}, tt.planner, nil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/plan?"+tt.query, nil)
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := rec.Header().Get("X-Plan-State"); got != string(pipeline.StateDegraded) {
				t.Fatalf("X-Plan-State = %q, want degraded", got)
			}
			var plan model.Plan
			if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
				t.Fatalf("decoding plan: %v", err)
			}
			if plan.ID != "a" || plan.Period != dec2026 {
				t.Fatalf("plan = %s %s, want a %s", plan.ID, plan.Period, dec2026)
			}
		})
	}
}

func TestStatusAndMetricsEndpoints(t *testing.T) {
	s := New(Config{Schedule: "0 0 6 1 * *"}, &fakePlanner{}, nil)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Schedule != "0 0 6 1 * *" {
		t.Fatalf("schedule = %q", st.Schedule)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "ok\n" {
		t.Fatalf("healthz body = %q", rec.Body.String())
	}
}

func TestNextRunAdvancesAfterScheduledRun(t *testing.T) {
	s := newTestService(&fakePlanner{}, nil)
	sched, err := parseSchedule("0 0 6 1 * *")
	if err != nil {
		t.Fatalf("parseSchedule: %v", err)
	}
	s.schedule = sched

	if got, want := s.snapshotStatus().NextRunAt, time.Date(2026, 12, 1, 6, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("next run = %v, want %v", got, want)
	}

	// The December run has fired; the next one is in January.
	s.now = func() time.Time { return time.Date(2026, 12, 1, 6, 0, 1, 0, time.UTC) }
	if got, want := s.snapshotStatus().NextRunAt, time.Date(2027, 1, 1, 6, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("next run = %v, want %v", got, want)
	}
}

func TestParseScheduleRejectsBadSpec(t *testing.T) {
	if _, err := parseSchedule("every tuesday"); err == nil {
		t.Fatal("expected an error for a malformed schedule")
	}
	if _, err := parseSchedule("@daily"); err != nil {
		t.Fatalf("descriptor rejected: %v", err)
	}
}
