// Package store implements the terminal's durable local store: the product
// table plus the two pending journals (product changes and sales).
//
// The store is a single SQLite database file opened in WAL mode so reads do
// not block the sync pass. Every write is committed before the call returns;
// the sync orchestrator only ever reads durable state, never in-memory UI
// state, so a crash mid-sync loses no intent.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Table names accepted by Subscribe.
const (
	TableProducts       = "products"
	TablePendingSales   = "pending_sales"
	TablePendingChanges = "pending_product_changes"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	barcode    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	price      INTEGER NOT NULL,
	stock      INTEGER NOT NULL,
	updated_at TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 1,
	deleted_at TEXT
);

CREATE TABLE IF NOT EXISTS pending_product_changes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	barcode      TEXT NOT NULL,
	action       TEXT NOT NULL,
	product_data TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	synced       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_pending_changes_synced
	ON pending_product_changes (synced);
CREATE INDEX IF NOT EXISTS idx_pending_changes_barcode
	ON pending_product_changes (barcode, synced);

CREATE TABLE IF NOT EXISTS pending_sales (
	local_sale_id TEXT PRIMARY KEY,
	items         TEXT NOT NULL,
	total_amount  INTEGER NOT NULL,
	paid_at       TEXT NOT NULL,
	synced        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_pending_sales_synced
	ON pending_sales (synced);
`

// Store wraps the SQLite connection and the change-notification registry.
type Store struct {
	conn *sql.DB
	path string

	mu        sync.RWMutex
	observers map[string][]func()
}

// Open opens (creating if necessary) the database at path and applies the
// schema. The caller must Close the store when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		conn:      conn,
		path:      path,
		observers: make(map[string][]func()),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database file is still writable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Subscribe registers fn to be called after every committed write to the
// given table. Callbacks run synchronously on the writing goroutine and must
// not block; the UI layer typically uses them to invalidate its views.
func (s *Store) Subscribe(table string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers[table] = append(s.observers[table], fn)
}

func (s *Store) notify(tables ...string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, table := range tables {
		for _, fn := range s.observers[table] {
			fn()
		}
	}
}

// Timestamps are persisted as RFC 3339 text so rows stay readable with the
// sqlite3 CLI during support sessions.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
