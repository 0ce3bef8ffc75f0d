package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/monsefu/resplan/internal/model"
)

// HistoryFilter narrows a history query. Zero values match everything.
type HistoryFilter struct {
	Kind   model.ChangeKind
	Record string
	Limit  int
}

// History returns change history entries, newest first.
func (s *Store) History(ctx context.Context, f HistoryFilter) ([]model.Change, error) {
	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "tipo_registro = ?")
		args = append(args, string(f.Kind))
	}
	if f.Record != "" {
		where = append(where, "registro = ?")
		args = append(args, f.Record)
	}

	q := `SELECT id, tipo_registro, registro, campo, valor_anterior, valor_nuevo, usuario, motivo, changed_at
		FROM change_history`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY changed_at DESC, rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Change
	for rows.Next() {
		var c model.Change
		var kind, changed string
		if err := rows.Scan(&c.ID, &kind, &c.Record, &c.Field, &c.OldValue, &c.NewValue,
			&c.User, &c.Reason, &changed); err != nil {
			return nil, err
		}
		c.Kind = model.ChangeKind(kind)
		c.ChangedAt = parseStamp(changed)
		out = append(out, c)
	}
	return out, rows.Err()
}
