// Package database opens the PostgreSQL pool used by the postgres storage
// driver and applies the schema migrations for it.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/relaybot/core/logger"
)

const (
	component  = "db"
	driverName = "postgres"

	defaultReadyTimeout = 30 * time.Second
	pingTimeout         = 5 * time.Second
	pollInterval        = 2 * time.Second
)

func (c Config) logAttrs(extra ...slog.Attr) []slog.Attr {
	return append([]slog.Attr{
		slog.String("driver", driverName),
		slog.String("host", c.Host),
		slog.String("port", c.Port),
		slog.String("db", c.Name),
	}, extra...)
}

func (c Config) readyTimeout() time.Duration {
	if c.ReadyTimeout > 0 {
		return c.ReadyTimeout
	}
	return defaultReadyTimeout
}

// Connect waits for the server to accept connections, then returns the pool
// sized by MaxConnections.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	db, attempts, err := dial(ctx, cfg.DSN(), cfg.readyTimeout())
	took := logger.RoundMS(time.Since(start))
	if err != nil {
		logger.Error(ctx, component, "db.connect", cfg.logAttrs(
			slog.Int("attempts", attempts),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if n := cfg.MaxConnections; n > 0 {
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}
	logger.Info(ctx, component, "db.connect", cfg.logAttrs(
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempts", attempts),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// dial retries sqlx.ConnectContext every pollInterval until it succeeds or
// the deadline passes. The returned error is the last connect failure.
func dial(ctx context.Context, dsn string, deadline time.Duration) (*sqlx.DB, int, error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		pingCtx, stop := context.WithTimeout(ctx, pingTimeout)
		db, err := sqlx.ConnectContext(pingCtx, driverName, dsn)
		stop()
		if err == nil {
			return db, attempt, nil
		}
		logger.Debug(ctx, component, "db.wait", slog.Int("attempt", attempt), slog.String("err", err.Error()))

		select {
		case <-ctx.Done():
			return nil, attempt, fmt.Errorf("database not ready after %s: %w", deadline, err)
		case <-ticker.C:
		}
	}
}
