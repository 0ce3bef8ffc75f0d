package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monsefu/resplan/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "resplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var admin = Actor{User: "admin", Reason: "test"}

func seedRows() []model.RatioRow {
	return []model.RatioRow{
		{Category: "SERENO", Subcategory: "CAPACIDAD", Parameter: "llamadas_mes", Value: 15, Editable: true},
		{Category: "SERENO", Subcategory: "CAPACIDAD", Parameter: "casos_mes", Value: 8, Editable: true},
		{Category: "INFRAESTRUCTURA", Subcategory: "COMISARIA", Parameter: "personal_maximo", Value: 15, Editable: false},
	}
}

func TestLoadRatiosEmpty(t *testing.T) {
	s := openTest(t)
	_, err := s.LoadRatios(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReplaceAndSetRatios(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.ReplaceRatios(ctx, seedRows(), admin))

	r, err := s.LoadRatios(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8.0, *r.Roles[model.RoleSereno].CasesPerMonth)

	require.NoError(t, s.SetRatios(ctx, []RatioUpdate{
		{Category: "SERENO", Parameter: "casos_mes", Value: 10},
		{Category: "SERENO", Parameter: "llamadas_mes", Value: 15},
		{Category: "TIEMPO", Parameter: "horas_caso", Value: 2},
	}, Actor{User: "planner", Reason: "ajuste mensual"}))

	rows, err := s.ListRatioRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "GENERAL", rows[3].Subcategory)
	assert.Equal(t, "TIEMPO", rows[3].Category)

	hist, err := s.History(ctx, HistoryFilter{Kind: model.ChangeRatio})
	require.NoError(t, err)
	// 3 seeded + casos_mes change + horas_caso insert; unchanged llamadas_mes leaves no row
	require.Len(t, hist, 5)

	changes, err := s.History(ctx, HistoryFilter{Record: "SERENO.CAPACIDAD", Limit: 1})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "casos_mes", changes[0].Field)
	assert.Equal(t, "8", changes[0].OldValue)
	assert.Equal(t, "10", changes[0].NewValue)
	assert.Equal(t, "planner", changes[0].User)
	assert.NotEmpty(t, changes[0].ID)
}

func TestSetRatioRejectsLockedAndInvalid(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.ReplaceRatios(ctx, seedRows(), admin))

	err := s.SetRatios(ctx, []RatioUpdate{{Category: "INFRAESTRUCTURA", Parameter: "personal_maximo", Value: 20}}, admin)
	assert.ErrorIs(t, err, ErrNotEditable)

	err = s.SetRatios(ctx, []RatioUpdate{{Category: "SERENO", Parameter: "casos_mes", Value: -1}}, admin)
	assert.Error(t, err)

	// a failed batch leaves earlier updates in the batch unapplied
	err = s.SetRatios(ctx, []RatioUpdate{
		{Category: "SERENO", Parameter: "casos_mes", Value: 9},
		{Category: "INFRAESTRUCTURA", Parameter: "personal_maximo", Value: 1},
	}, admin)
	require.Error(t, err)
	r, err := s.LoadRatios(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8.0, *r.Roles[model.RoleSereno].CasesPerMonth)
}

func TestDeleteRatio(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.ReplaceRatios(ctx, seedRows(), admin))

	require.NoError(t, s.DeleteRatio(ctx, "SERENO", "", "casos_mes", admin))
	assert.ErrorIs(t, s.DeleteRatio(ctx, "SERENO", "", "casos_mes", admin), ErrNotFound)

	r, err := s.LoadRatios(ctx)
	require.NoError(t, err)
	assert.Nil(t, r.Roles[model.RoleSereno].CasesPerMonth)
}

func TestInventory(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.LoadInventory(ctx)
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, s.SetInventory(ctx, map[string]int{"serenos": 150, "ambulancias": 8}, admin))
	require.NoError(t, s.SetInventory(ctx, map[string]int{"serenos": 140, "ambulancias": 8}, admin))

	inv, err := s.LoadInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 140, inv.Serenos)
	assert.Equal(t, 8, inv.Ambulancias)
	assert.WithinDuration(t, time.Now(), inv.UpdatedAt, time.Minute)

	hist, err := s.History(ctx, HistoryFilter{Kind: model.ChangeInventory})
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "serenos", hist[0].Record)
	assert.Equal(t, "150", hist[0].OldValue)

	assert.Error(t, s.SetInventory(ctx, map[string]int{"tanques": 1}, admin))
	assert.Error(t, s.SetInventory(ctx, map[string]int{"serenos": -3}, admin))
}

func TestPlans(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	period := model.Period{Year: 2026, Month: 11}

	older := &model.Plan{ID: "a", Period: period, GeneratedAt: time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC),
		Forecast: model.Forecast{Period: period, Complaints: map[model.TypeCode]float64{1: 12.5}}}
	newer := &model.Plan{ID: "b", Period: period, GeneratedAt: time.Date(2026, 10, 2, 6, 0, 0, 0, time.UTC),
		Gap: &model.GapReport{Status: model.StatusDeficit, PersonnelTotalGap: -3}}
	require.NoError(t, s.SavePlan(ctx, older, "degraded"))
	require.NoError(t, s.SavePlan(ctx, newer, "complete"))

	got, err := s.LoadPlan(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 12.5, got.Forecast.Complaints[1])

	latest, err := s.LatestPlan(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)
	assert.Equal(t, -3, latest.Gap.PersonnelTotalGap)

	runs, err := s.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "complete", runs[0].State)

	_, err = s.LoadPlan(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LatestPlan(ctx, model.Period{Year: 2030, Month: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
