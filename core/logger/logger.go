// Package logger is the structured event log shared by core and relay. Every
// line carries a component and an event name plus the correlation metadata
// found in the context; see Meta.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/relaybot/core/buildinfo"
	coreconfig "github.com/m3rciful/relaybot/core/config"
)

const writerQueue = 64 * 1024

var (
	initOnce sync.Once
	stopOnce sync.Once

	writer  *asyncWriter
	logFile *os.File

	level         slog.LevelVar
	debugSampler  = newRatioSampler(1, 50)
	traceOverride bool

	components sync.Map // name -> *slog.Logger

	// L is the base logger; components derive from it via Component.
	L *slog.Logger
)

// options is the logging configuration after defaults are applied.
type options struct {
	format    logFormat
	keyOrder  []string
	level     slog.Level
	sampleNum int
	sampleDen int
	profile   string
	file      string
}

func resolveOptions(cfg *coreconfig.Config) options {
	o := options{
		format:    formatJSON,
		keyOrder:  defaultKeyOrder,
		level:     slog.LevelInfo,
		sampleNum: 1,
		sampleDen: 50,
		profile:   "prod",
	}
	if cfg == nil {
		return o
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		o.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		o.format = formatKV
	case "json":
	default:
		if o.profile == "debug" || o.profile == "dev" {
			o.format = formatKV
		}
	}

	if order := splitList(lc.KeysOrder); len(order) > 0 && lc.KeysOrder != "default" {
		o.keyOrder = order
	}

	name := strings.ToLower(strings.TrimSpace(lc.Level))
	if name == "warning" {
		name = "warn"
	}
	if name != "" {
		var lv slog.Level
		if err := lv.UnmarshalText([]byte(name)); err == nil {
			o.level = lv
		}
	}

	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		num, den := parseRatioSpec(spec)
		if num < 0 || den < 0 || (num == 0) != (den == 0) {
			num, den = 1, 50
		}
		o.sampleNum, o.sampleDen = num, den
	}

	if dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && file != "" {
		o.file = filepath.Join(dir, file)
	}
	return o
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitLogger installs the global logger: stdout plus the optional file sink,
// written through one async queue. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		err = install(resolveOptions(cfg))
	})
	return err
}

func install(o options) error {
	sinks := []io.Writer{os.Stdout}
	if o.file != "" {
		if err := os.MkdirAll(filepath.Dir(o.file), 0o755); err != nil {
			return fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("logger: open log file: %w", err)
		}
		logFile = f
		sinks = append(sinks, f)
	}

	level.Set(o.level)
	debugSampler.Set(o.sampleNum, o.sampleDen)
	traceOverride = truthy(os.Getenv("LOG_TRACE"))

	writer = newAsyncWriter(sinks, writerQueue)
	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &level,
		writer:   writer,
		format:   o.format,
		keyOrder: o.keyOrder,
	}))
	slog.SetDefault(L)

	Info(context.Background(), "app", "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", o.profile),
		slog.String("log_level", o.level.String()),
	)
	return nil
}

// Shutdown drains queued lines and closes the sinks. Later calls are no-ops.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if writer != nil {
			errs = append(errs, writer.Flush(), writer.Close())
		}
		if logFile != nil {
			errs = append(errs, logFile.Close())
		}
	})
	return errors.Join(errs...)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Component returns the base logger tagged with component=name. It is nil
// before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	if cached, ok := components.Load(name); ok {
		return cached.(*slog.Logger)
	}
	l, _ := components.LoadOrStore(name, L.With("component", name))
	return l.(*slog.Logger)
}

// LogEvent writes one event line through logg; nil logg means the logger in
// ctx, then the base logger. Nothing is written before InitLogger.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Event logs event for component at lvl.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, lvl, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. LOG_TRACE=1 turns sampling off.
func ShouldSampleDebug() bool {
	return traceOverride || debugSampler.Allow()
}
