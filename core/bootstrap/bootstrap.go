// Package bootstrap brings up the infrastructure a bot needs before its
// handlers are wired: the logger first, then the optional database.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coredatabase "github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/core/logger"
)

// Options select the steps Run performs. Nil hooks use the real
// implementations; tests replace them.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// UseDatabase enables the PostgreSQL connect and migrate steps.
	UseDatabase bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
}

// Result is what Run brought up. DB is nil unless UseDatabase was set; the
// caller owns it.
type Result struct {
	DB *sqlx.DB
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Run initialises the logger and, when enabled, connects to PostgreSQL and
// applies migrations. On failure nothing it opened is left open.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	if !opts.UseDatabase {
		return &Result{}, nil
	}

	start := time.Now()
	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := opts.Migrate(ctx, opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}
	logger.Debug(ctx, "bootstrap", "database.ready", slog.Duration("duration", logger.RoundMS(time.Since(start))))
	return &Result{DB: db}, nil
}
