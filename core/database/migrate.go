package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/relaybot/core/logger"
)

const (
	migrateComponent = "db.migrate"
	// previewFiles caps how many migration names one log line lists.
	previewFiles = 6
)

// migration is one up script found in the migrations directory.
type migration struct {
	version uint64
	name    string
}

type migrations []migration

// between returns the scripts with from < version <= to.
func (ms migrations) between(from, to uint64) []string {
	var out []string
	for _, m := range ms {
		if m.version > from && m.version <= to {
			out = append(out, m.name)
		}
	}
	return out
}

func (ms migrations) names() []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.name
	}
	return out
}

// RunMigrations applies every pending up script from cfg.MigrationsDir
// ("migrations" by default). The server must already be reachable; Connect
// waits for it.
func RunMigrations(ctx context.Context, cfg Config) error {
	dir, err := resolveDir(cfg.MigrationsDir)
	if err != nil {
		logger.Error(ctx, migrateComponent, "resolve", slog.String("err", err.Error()))
		return err
	}
	scripts := scanMigrations(dir)
	logger.Debug(ctx, migrateComponent, "resolve",
		append([]slog.Attr{slog.String("path", dir)}, logger.ListAttrs("files", scripts.names(), previewFiles)...)...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.Error(ctx, migrateComponent, "init", slog.String("err", err.Error()))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from := currentVersion(m)
	start := time.Now()
	upErr := m.Up()
	took := logger.RoundMS(time.Since(start))

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, migrateComponent, "apply",
			slog.Uint64("from_ver", from),
			slog.Duration("duration", took),
			slog.String("err", upErr.Error()),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	to := currentVersion(m)
	applied := scripts.between(from, to)
	if len(applied) > 0 {
		logger.Debug(ctx, migrateComponent, "apply", logger.ListAttrs("files", applied, previewFiles)...)
	}
	logger.Info(ctx, migrateComponent, "summary",
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

// currentVersion is 0 for a database with no migrations applied yet.
func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

// scanMigrations lists the *.up.sql scripts of dir ordered by version. A
// missing directory yields nothing; migrate.New reports it.
func scanMigrations(dir string) migrations {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out migrations
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, migration{version: v, name: name})
	}
	slices.SortFunc(out, func(a, b migration) int {
		switch {
		case a.version < b.version:
			return -1
		case a.version > b.version:
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	return out
}
