// Package daemon provides the long-running planning service: a scheduled
// precompute of next month's plan plus an HTTP API over plans and events.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/monsefu/resplan/internal/engine"
	"github.com/monsefu/resplan/internal/metrics"
	"github.com/monsefu/resplan/internal/model"
	"github.com/monsefu/resplan/internal/pipeline"
	"github.com/monsefu/resplan/internal/provider"
)

// Event types.
const (
	EventPlan         = "plan"
	EventPlanDegraded = "plan_degraded"
	EventPlanFailed   = "plan_failed"
	EventPlanChanged  = "plan_changed"
)

// Planner computes the plan for one month.
type Planner interface {
	Plan(ctx context.Context, period model.Period) (*model.Plan, error)
}

// PlanStore persists computed plans.
type PlanStore interface {
	SavePlan(ctx context.Context, p *model.Plan, state string) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Schedule     string
	Lookahead    int
	EventsBuffer int
}

// Snapshot is a compact plan state for status/event payloads.
type Snapshot struct {
	At                  time.Time      `json:"at"`
	Period              model.Period   `json:"period"`
	PlanID              string         `json:"plan_id"`
	State               pipeline.State `json:"state"`
	PersonnelRequired   int            `json:"personnel_required"`
	VehiclesRequired    int            `json:"vehicles_required"`
	BudgetMonthly       int64          `json:"budget_monthly"`
	TotalCases          float64        `json:"total_cases"`
	PersonnelGap        int            `json:"personnel_gap"`
	VehicleGap          int            `json:"vehicle_gap"`
	CriticalDeficits    int            `json:"critical_deficits"`
	ResponseCapacityPct float64        `json:"response_capacity_pct"`
}

// Delta captures snapshot deltas between runs for the same period.
type Delta struct {
	PersonnelRequired int     `json:"personnel_required"`
	VehiclesRequired  int     `json:"vehicles_required"`
	BudgetMonthly     int64   `json:"budget_monthly"`
	TotalCases        float64 `json:"total_cases"`
	PersonnelGap      int     `json:"personnel_gap"`
	VehicleGap        int     `json:"vehicle_gap"`
	CriticalDeficits  int     `json:"critical_deficits"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event is emitted whenever a scheduled run produces a new or different plan.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRunAt       time.Time `json:"last_run_at"`
	NextRunAt       time.Time `json:"next_run_at"`
	Schedule        string    `json:"schedule"`
	RunCount        int64     `json:"run_count"`
	Latest          Snapshot  `json:"latest"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	planner Planner
	store   PlanStore
	now     func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastRunAt   time.Time
	schedule    cron.Schedule
	runCount    int64
	lastError   string
	latest      Snapshot
	byPeriod    map[model.Period]Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. store may be nil.
func New(cfg Config, planner Planner, store PlanStore) *Service {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 0 6 1 * *"
	}
	if cfg.Lookahead < 1 {
		cfg.Lookahead = 1
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}

	return &Service{
		cfg:       cfg,
		planner:   planner,
		store:     store,
		now:       time.Now,
		startedAt: time.Now(),
		byPeriod:  make(map[model.Period]Snapshot),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/plan", s.handlePlan)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Run starts the HTTP endpoints and the precompute schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	sched, err := parseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.schedule = sched
	s.mu.Unlock()

	c := cron.New(cron.WithSeconds())
	c.Schedule(sched, cron.FuncJob(func() { s.precompute(ctx) }))

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the upcoming plan so status is useful immediately.
	s.precompute(ctx)

	c.Start()
	log.Printf("resplan daemon listening on %s, schedule %q", s.cfg.Addr, s.cfg.Schedule)

	defer func() {
		<-c.Stop().Done()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// precompute plans the months after the current one.
func (s *Service) precompute(ctx context.Context) {
	current := model.PeriodOf(s.now())
	for i := 1; i <= s.cfg.Lookahead; i++ {
		s.runOnce(ctx, current.AddMonths(i))
	}
}

// runOnce plans period, stores the run and publishes an event when the
// outcome is new or differs from the previous run for that period.
func (s *Service) runOnce(ctx context.Context, period model.Period) {
	plan, err := s.planner.Plan(ctx, period)
	state := pipeline.StateOf(plan, err)
	now := s.now()

	var saveErr error
	if err == nil && s.store != nil {
		saveErr = s.store.SavePlan(ctx, plan, string(state))
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	s.lastRunAt = now
	s.runCount++
	s.lastError = ""

	switch {
	case err != nil:
		s.lastError = err.Error()
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventPlanFailed,
			Timestamp: now,
			Snapshot:  Snapshot{At: now, Period: period, State: state},
			Error:     err.Error(),
		}
		publish = true
	default:
		snap := snapshotFromPlan(plan, state, now)
		prev, seen := s.byPeriod[period]
		s.byPeriod[period] = snap
		s.latest = snap

		evType := ""
		var delta Delta
		switch {
		case !seen && state == pipeline.StateDegraded:
			evType = EventPlanDegraded
		case !seen:
			evType = EventPlan
		case prev.State != state:
			evType = EventPlan
			if state == pipeline.StateDegraded {
				evType = EventPlanDegraded
			}
			delta = diffSnapshots(prev, snap)
		default:
			delta = diffSnapshots(prev, snap)
			if !delta.isZero() {
				evType = EventPlanChanged
			}
		}
		if evType != "" {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      evType,
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	if saveErr != nil {
		s.lastError = saveErr.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("resplan daemon: planning %s: %v", period, err)
	}
	if saveErr != nil {
		log.Printf("resplan daemon: saving plan %s: %v", period, saveErr)
	}
	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromPlan(p *model.Plan, state pipeline.State, at time.Time) Snapshot {
	snap := Snapshot{
		At:                  at,
		Period:              p.Period,
		PlanID:              p.ID,
		State:               state,
		PersonnelRequired:   p.Demand.Personnel.Total(),
		VehiclesRequired:    p.Demand.Vehicles.Total(),
		BudgetMonthly:       p.Demand.Budget,
		TotalCases:          p.Demand.TotalCases,
		ResponseCapacityPct: p.Kpis.ResponseCapacityPct,
	}
	if p.Gap != nil {
		snap.PersonnelGap = p.Gap.PersonnelTotalGap
		snap.VehicleGap = p.Gap.VehicleTotalGap
		snap.CriticalDeficits = len(p.Gap.CriticalDeficits)
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		PersonnelRequired: curr.PersonnelRequired - prev.PersonnelRequired,
		VehiclesRequired:  curr.VehiclesRequired - prev.VehiclesRequired,
		BudgetMonthly:     curr.BudgetMonthly - prev.BudgetMonthly,
		TotalCases:        curr.TotalCases - prev.TotalCases,
		PersonnelGap:      curr.PersonnelGap - prev.PersonnelGap,
		VehicleGap:        curr.VehicleGap - prev.VehicleGap,
		CriticalDeficits:  curr.CriticalDeficits - prev.CriticalDeficits,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// parseSchedule reads a six-field cron spec (seconds first) or a descriptor.
func parseSchedule(spec string) (cron.Schedule, error) {
	p := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := p.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return sched, nil
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	if s.schedule != nil {
		next = s.schedule.Next(s.now())
	}
	return Status{
		StartedAt:       s.startedAt,
		LastRunAt:       s.lastRunAt,
		NextRunAt:       next,
		Schedule:        s.cfg.Schedule,
		RunCount:        s.runCount,
		Latest:          s.latest,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handlePlan(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	plan, err := s.planner.Plan(r.Context(), period)
	if err != nil {
		writeJSON(w, planErrorStatus(err), map[string]string{
			"error": err.Error(),
			"state": string(pipeline.StateFailed),
		})
		return
	}
	w.Header().Set("X-Plan-State", string(pipeline.StateOf(plan, nil)))
	writeJSON(w, http.StatusOK, plan)
}

func periodFromQuery(r *http.Request) (model.Period, error) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return model.Period{}, fmt.Errorf("%w: year %q", pipeline.ErrInvalidPeriod, q.Get("year"))
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		return model.Period{}, fmt.Errorf("%w: month %q", pipeline.ErrInvalidPeriod, q.Get("month"))
	}
	p := model.Period{Year: year, Month: month}
	return p, pipeline.ValidatePeriod(p)
}

// planErrorStatus maps a planning failure to an HTTP status.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidForecast), errors.Is(err, engine.ErrMissingRatio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, provider.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the latest snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Latest,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
