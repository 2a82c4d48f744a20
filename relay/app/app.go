// Package app assembles the relay bot: storage backend, conversation engine,
// moderation router, Telegram gateway and the metrics endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/relaybot/core/bootstrap"
	"github.com/m3rciful/relaybot/core/buildinfo"
	corecmd "github.com/m3rciful/relaybot/core/cmd"
	"github.com/m3rciful/relaybot/core/logger"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	tg "github.com/m3rciful/relaybot/core/telegram"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
	"github.com/m3rciful/relaybot/relay"
	"github.com/m3rciful/relaybot/relay/engine"
	"github.com/m3rciful/relaybot/relay/gateway"
	"github.com/m3rciful/relaybot/relay/moderation"
	"github.com/m3rciful/relaybot/relay/store"
	"github.com/m3rciful/relaybot/relay/store/redisstore"
	"github.com/m3rciful/relaybot/relay/store/sqlstore"
)

const component = "app"

// App is a fully wired relay bot.
type App struct {
	cfg     *Config
	backend store.Backend
	closers []func() error

	Stores  *store.Stores
	Service *relay.Service
	Gateway *gateway.Gateway
}

// LoadConfig adapts Load to cmd.Options.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return Load(path)
}

// Bootstrap adapts Setup to cmd.Options.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return Setup(ctx, cfg)
}

// Setup initialises logging, opens the configured backend and wires the app.
func Setup(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:      &cfg.Config,
		Database:    cfg.Database,
		UseDatabase: cfg.Storage.Driver == DriverPostgres,
	})
	if err != nil {
		return nil, err
	}

	backend, closer, err := OpenBackend(ctx, cfg, res.DB)
	if err != nil {
		if res.DB != nil {
			_ = res.DB.Close()
		}
		return nil, err
	}
	logger.Info(ctx, component, "storage.ready", slog.String("driver", cfg.Storage.Driver))

	a := New(cfg, backend)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// OpenBackend opens the storage backend named by cfg.Storage.Driver. db is
// the PostgreSQL connection for the postgres driver and is closed by the
// returned closer.
func OpenBackend(ctx context.Context, cfg *Config, db *sqlx.DB) (store.Backend, func() error, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		return store.NewMemory(), nil, nil
	case DriverFile:
		d, err := store.NewDir(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("app: file storage: %w", err)
		}
		return d, nil, nil
	case DriverSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: sqlite storage: %w", err)
		}
		return s, s.Close, nil
	case DriverPostgres:
		if db == nil {
			return nil, nil, errors.New("app: postgres storage without a database connection")
		}
		return sqlstore.New(db), db.Close, nil
	case DriverRedis:
		s, err := redisstore.Open(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			LockTTL:  cfg.Redis.LockTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("app: redis storage: %w", err)
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
}

// New wires the relay on top of an open backend.
func New(cfg *Config, backend store.Backend) *App {
	admin := relay.UID(cfg.Telegram.AdminID)
	stores := store.NewStores(backend)
	users := engine.New(stores, admin, cfg.Texts, engine.Options{MaxItems: cfg.Relay.MaxProposalItems})
	mod := moderation.New(stores, admin, cfg.Texts)
	svc := relay.NewService(admin, users, mod)
	return &App{
		cfg:     cfg,
		backend: backend,
		Stores:  stores,
		Service: svc,
		Gateway: gateway.New(svc, gateway.Options{Admin: admin, Throttled: cfg.Texts.Throttled}),
	}
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.Gateway.Register(reg)

	coremetrics.SetBuildInfo(buildinfo.Version, buildinfo.Commit)
	coremetrics.MustRegister()

	dispatch := tgsender.Options{
		Workers:      a.cfg.Sender.Workers,
		QueueSize:    a.cfg.Sender.QueueSize,
		MaxRetries:   a.cfg.Sender.MaxRetries,
		RetryBackoff: a.cfg.Sender.RetryBackoff,
		EnqueueWait:  a.cfg.Sender.EnqueueWait,
	}

	var srv *coremetrics.Server
	if a.cfg.Metrics.Listen != "" {
		srv = coremetrics.NewServer(coremetrics.ServerOptions{
			Addr:   a.cfg.Metrics.Listen,
			Checks: a.healthChecks(),
		})
	}

	return tg.RunOptions{
		Config:            &a.cfg.Config,
		Registry:          reg,
		Middlewares:       tg.DefaultMiddlewares(&a.cfg.Config, a.Gateway.Throttled),
		DispatcherOptions: dispatch,
		Routes:            a.Gateway.Routes(reg),
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			if srv == nil {
				return nil
			}
			return srv.Start(ctx)
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			var errs []error
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				errs = append(errs, srv.Shutdown(shutdownCtx))
				cancel()
			}
			errs = append(errs, a.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (a *App) healthChecks() map[string]coremetrics.Check {
	checks := map[string]coremetrics.Check{}
	if p, ok := a.backend.(store.Pinger); ok {
		checks["storage"] = p.Ping
	}
	return checks
}

// Close releases the storage backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
