// Package store provides SQLite-backed storage for ratios, inventory, change
// history and computed plans.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/monsefu/resplan/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

var (
	// ErrEmpty indicates a table holds nothing to load yet.
	ErrEmpty = errors.New("store: no data")
	// ErrNotFound indicates a lookup matched no row.
	ErrNotFound = errors.New("store: not found")
	// ErrNotEditable indicates a ratio row is locked against changes.
	ErrNotEditable = errors.New("store: parameter is not editable")
)

// Store wraps the resplan database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Actor identifies who made a change and why.
type Actor struct {
	User   string
	Reason string
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// stampLayout is fixed-width so stored timestamps sort lexically.
const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) stamp() string {
	return s.now().UTC().Format(stampLayout)
}

func parseStamp(v string) time.Time {
	t, _ := time.Parse(stampLayout, v)
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// recordChange appends a history row inside tx.
func (s *Store) recordChange(ctx context.Context, tx *sql.Tx, c model.Change, who Actor) error {
	user := who.User
	if user == "" {
		user = "system"
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO change_history
		(id, tipo_registro, registro, campo, valor_anterior, valor_nuevo, usuario, motivo, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), string(c.Kind), c.Record, c.Field, c.OldValue, c.NewValue,
		user, who.Reason, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("recording change: %w", err)
	}
	return nil
}
