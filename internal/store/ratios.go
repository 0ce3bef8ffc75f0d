package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/monsefu/resplan/internal/model"
)

// RatioUpdate sets one ratio parameter. An empty Subcategory matches the single
// existing row for Category and Parameter, or "GENERAL" for a new row.
type RatioUpdate struct {
	Category    string
	Subcategory string
	Parameter   string
	Value       float64
}

func (u RatioUpdate) key() string {
	return u.Category + "." + u.Parameter
}

// ListRatioRows returns all ratio rows ordered by category, subcategory and name.
func (s *Store) ListRatioRows(ctx context.Context) ([]model.RatioRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT categoria, subcategoria, nombre_parametro, valor,
		descripcion, unidad, editable, updated_at
		FROM ratio_config ORDER BY categoria, subcategoria, nombre_parametro`)
	if err != nil {
		return nil, fmt.Errorf("querying ratios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.RatioRow
	for rows.Next() {
		var r model.RatioRow
		var editable int
		var updated string
		if err := rows.Scan(&r.Category, &r.Subcategory, &r.Parameter, &r.Value,
			&r.Description, &r.Unit, &editable, &updated); err != nil {
			return nil, err
		}
		r.Editable = editable != 0
		r.UpdatedAt = parseStamp(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRatios returns the stored ratios. It fails with ErrEmpty when nothing is stored.
func (s *Store) LoadRatios(ctx context.Context) (model.OperationalRatios, error) {
	rows, err := s.ListRatioRows(ctx)
	if err != nil {
		return model.OperationalRatios{}, err
	}
	if len(rows) == 0 {
		return model.OperationalRatios{}, fmt.Errorf("ratios: %w", ErrEmpty)
	}
	return model.RatiosFromRows(rows).Ratios(), nil
}

// SetRatios applies updates in one transaction, recording a history row for each
// value that changed.
func (s *Store) SetRatios(ctx context.Context, updates []RatioUpdate, who Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range updates {
		if err := s.setRatio(ctx, tx, u, who); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) setRatio(ctx context.Context, tx *sql.Tx, u RatioUpdate, who Actor) error {
	if math.IsNaN(u.Value) || math.IsInf(u.Value, 0) || u.Value < 0 {
		return fmt.Errorf("ratio %s: value %v must be a non-negative number", u.key(), u.Value)
	}

	sub, old, editable, found, err := findRatio(ctx, tx, u)
	if err != nil {
		return err
	}
	if found && !editable {
		return fmt.Errorf("ratio %s: %w", u.key(), ErrNotEditable)
	}
	if found && old == u.Value {
		return nil
	}

	if found {
		_, err = tx.ExecContext(ctx, `UPDATE ratio_config SET valor = ?, updated_at = ?
			WHERE categoria = ? AND subcategoria = ? AND nombre_parametro = ?`,
			u.Value, s.stamp(), u.Category, sub, u.Parameter)
	} else {
		_, err = tx.ExecContext(ctx, `INSERT INTO ratio_config
			(categoria, subcategoria, nombre_parametro, valor, updated_at) VALUES (?, ?, ?, ?, ?)`,
			u.Category, sub, u.Parameter, u.Value, s.stamp())
	}
	if err != nil {
		return fmt.Errorf("saving ratio %s: %w", u.key(), err)
	}

	oldValue := ""
	if found {
		oldValue = formatFloat(old)
	}
	return s.recordChange(ctx, tx, model.Change{
		Kind:     model.ChangeRatio,
		Record:   u.Category + "." + sub,
		Field:    u.Parameter,
		OldValue: oldValue,
		NewValue: formatFloat(u.Value),
	}, who)
}

// findRatio resolves the subcategory of u and returns the current row, if any.
func findRatio(ctx context.Context, tx *sql.Tx, u RatioUpdate) (sub string, value float64, editable, found bool, err error) {
	if u.Subcategory != "" {
		var ed int
		err = tx.QueryRowContext(ctx, `SELECT valor, editable FROM ratio_config
			WHERE categoria = ? AND subcategoria = ? AND nombre_parametro = ?`,
			u.Category, u.Subcategory, u.Parameter).Scan(&value, &ed)
		if errors.Is(err, sql.ErrNoRows) {
			return u.Subcategory, 0, true, false, nil
		}
		return u.Subcategory, value, ed != 0, err == nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT subcategoria, valor, editable FROM ratio_config
		WHERE categoria = ? AND nombre_parametro = ?`, u.Category, u.Parameter)
	if err != nil {
		return "", 0, false, false, err
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		var ed int
		if err := rows.Scan(&sub, &value, &ed); err != nil {
			return "", 0, false, false, err
		}
		editable = ed != 0
		n++
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, false, err
	}
	switch n {
	case 0:
		return "GENERAL", 0, true, false, nil
	case 1:
		return sub, value, editable, true, nil
	default:
		return "", 0, false, false, fmt.Errorf("ratio %s is ambiguous: give a subcategory", u.key())
	}
}

// DeleteRatio removes one ratio row.
func (s *Store) DeleteRatio(ctx context.Context, category, subcategory, param string, who Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	sub, old, editable, found, err := findRatio(ctx, tx, RatioUpdate{Category: category, Subcategory: subcategory, Parameter: param})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("ratio %s.%s: %w", category, param, ErrNotFound)
	}
	if !editable {
		return fmt.Errorf("ratio %s.%s: %w", category, param, ErrNotEditable)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ratio_config
		WHERE categoria = ? AND subcategoria = ? AND nombre_parametro = ?`, category, sub, param); err != nil {
		return fmt.Errorf("deleting ratio: %w", err)
	}
	if err := s.recordChange(ctx, tx, model.Change{
		Kind:     model.ChangeRatio,
		Record:   category + "." + sub,
		Field:    param,
		OldValue: formatFloat(old),
	}, who); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceRatios replaces the whole ratio table with rows, recording every
// added, changed or removed value.
func (s *Store) ReplaceRatios(ctx context.Context, rows []model.RatioRow, who Actor) error {
	current, err := s.ListRatioRows(ctx)
	if err != nil {
		return err
	}
	type rowKey struct{ cat, sub, param string }
	before := make(map[rowKey]float64, len(current))
	for _, r := range current {
		before[rowKey{r.Category, r.Subcategory, r.Parameter}] = r.Value
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ratio_config"); err != nil {
		return fmt.Errorf("clearing ratios: %w", err)
	}
	now := s.stamp()
	for _, r := range rows {
		editable := 0
		if r.Editable {
			editable = 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO ratio_config
			(categoria, subcategoria, nombre_parametro, valor, descripcion, unidad, editable, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Category, r.Subcategory, r.Parameter, r.Value, r.Description, r.Unit, editable, now); err != nil {
			return fmt.Errorf("inserting ratio %s.%s: %w", r.Category, r.Parameter, err)
		}

		k := rowKey{r.Category, r.Subcategory, r.Parameter}
		old, had := before[k]
		delete(before, k)
		if had && old == r.Value {
			continue
		}
		c := model.Change{Kind: model.ChangeRatio, Record: r.Category + "." + r.Subcategory, Field: r.Parameter, NewValue: formatFloat(r.Value)}
		if had {
			c.OldValue = formatFloat(old)
		}
		if err := s.recordChange(ctx, tx, c, who); err != nil {
			return err
		}
	}
	for k, old := range before {
		c := model.Change{Kind: model.ChangeRatio, Record: k.cat + "." + k.sub, Field: k.param, OldValue: formatFloat(old)}
		if err := s.recordChange(ctx, tx, c, who); err != nil {
			return err
		}
	}
	return tx.Commit()
}
