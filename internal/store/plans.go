package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/monsefu/resplan/internal/model"
)

// SavePlan stores a computed plan with its presentation state.
func (s *Store) SavePlan(ctx context.Context, p *model.Plan, state string) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO plan_runs
		(id, year, month, state, generated_at, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Period.Year, p.Period.Month, state,
		p.GeneratedAt.UTC().Format(stampLayout), string(payload))
	if err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	return nil
}

// LoadPlan returns a stored plan by ID.
func (s *Store) LoadPlan(ctx context.Context, id string) (*model.Plan, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM plan_runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return decodePlan(payload)
}

// LatestPlan returns the most recent stored plan for period.
func (s *Store) LatestPlan(ctx context.Context, period model.Period) (*model.Plan, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM plan_runs
		WHERE year = ? AND month = ? ORDER BY generated_at DESC LIMIT 1`,
		period.Year, period.Month).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan for %s: %w", period, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return decodePlan(payload)
}

// ListPlans returns stored plan summaries, newest first.
func (s *Store) ListPlans(ctx context.Context, limit int) ([]model.PlanRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, year, month, state, generated_at
		FROM plan_runs ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.PlanRun
	for rows.Next() {
		var r model.PlanRun
		var generated string
		if err := rows.Scan(&r.ID, &r.Period.Year, &r.Period.Month, &r.State, &generated); err != nil {
			return nil, err
		}
		r.GeneratedAt = parseStamp(generated)
		out = append(out, r)
	}
	return out, rows.Err()
}

func decodePlan(payload string) (*model.Plan, error) {
	var p model.Plan
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &p, nil
}
