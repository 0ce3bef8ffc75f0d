package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/monsefu/resplan/internal/model"
)

// LoadInventory returns the stored inventory. It fails with ErrEmpty when nothing is stored.
func (s *Store) LoadInventory(ctx context.Context) (model.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT nombre, cantidad, updated_at FROM inventory")
	if err != nil {
		return model.Inventory{}, fmt.Errorf("querying inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var inv model.Inventory
	n := 0
	for rows.Next() {
		var name, updated string
		var qty int
		if err := rows.Scan(&name, &qty, &updated); err != nil {
			return model.Inventory{}, err
		}
		inv.Set(name, qty)
		if t := parseStamp(updated); t.After(inv.UpdatedAt) {
			inv.UpdatedAt = t
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return model.Inventory{}, err
	}
	if n == 0 {
		return model.Inventory{}, fmt.Errorf("inventory: %w", ErrEmpty)
	}
	return inv, nil
}

// SetInventory stores the given counts in one transaction. Names must be known
// inventory items and counts non-negative. Unchanged counts leave no history.
func (s *Store) SetInventory(ctx context.Context, counts map[string]int, who Actor) error {
	names := make([]string, 0, len(counts))
	for name, qty := range counts {
		if _, ok := (model.Inventory{}).Get(name); !ok {
			return fmt.Errorf("unknown inventory item %q", name)
		}
		if qty < 0 {
			return fmt.Errorf("inventory %s: count %d must not be negative", name, qty)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range names {
		qty := counts[name]
		var old int
		err := tx.QueryRowContext(ctx, "SELECT cantidad FROM inventory WHERE nombre = ?", name).Scan(&old)
		found := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading inventory %s: %w", name, err)
		}
		if found && old == qty {
			continue
		}

		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO inventory (nombre, cantidad, updated_at)
			VALUES (?, ?, ?)`, name, qty, s.stamp()); err != nil {
			return fmt.Errorf("saving inventory %s: %w", name, err)
		}

		c := model.Change{Kind: model.ChangeInventory, Record: name, Field: "cantidad", NewValue: strconv.Itoa(qty)}
		if found {
			c.OldValue = strconv.Itoa(old)
		}
		if err := s.recordChange(ctx, tx, c, who); err != nil {
			return err
		}
	}
	return tx.Commit()
}
