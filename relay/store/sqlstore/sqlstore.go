// Package sqlstore keeps relay documents in a single SQL table. It serves
// PostgreSQL (schema applied by migrations) and SQLite (schema ensured on open).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay/store"
)

const schema = `CREATE TABLE IF NOT EXISTS relay_store (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const (
	selectDoc = `SELECT data FROM relay_store WHERE name = ?`
	upsertDoc = `INSERT INTO relay_store (name, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
)

// Store is a store.Backend over sqlx.
type Store struct {
	db    *sqlx.DB
	owned bool
}

// New wraps an existing connection; the caller owns it and its schema.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// OpenSQLite opens (or creates) a SQLite database file and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	start := time.Now()
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps SQLITE_BUSY out of concurrent updates
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	logger.Info(ctx, "db", "db.connect",
		slog.String("driver", "sqlite"),
		slog.String("path", filepath.Clean(path)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &Store{db: db, owned: true}, nil
}

// Load implements store.Backend.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind(selectDoc), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	return []byte(data), nil
}

// Save implements store.Backend.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertDoc), name, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	return nil
}

// Ping implements store.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
