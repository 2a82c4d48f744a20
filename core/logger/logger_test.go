package logger

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/relaybot/core/config"
)

func TestResolveOptionsDefaults(t *testing.T) {
	o := resolveOptions(nil)
	if o.format != formatJSON || o.level != slog.LevelInfo || o.profile != "prod" {
		t.Fatalf("defaults = %+v", o)
	}
	if o.sampleNum != 1 || o.sampleDen != 50 || o.file != "" {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestResolveOptionsFromConfig(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Logging = coreconfig.LoggingConfig{
		Level:       "Warning",
		Profile:     "Dev",
		KeysOrder:   " event , rid ,,",
		DebugSample: "1/10",
		Dir:         "/var/log/relaybot",
		BotFile:     "bot.log",
	}
	o := resolveOptions(cfg)
	if o.format != formatKV {
		t.Fatalf("dev profile should default to kv, got %s", o.format)
	}
	if o.level != slog.LevelWarn {
		t.Fatalf("level = %v", o.level)
	}
	if len(o.keyOrder) != 2 || o.keyOrder[0] != "event" || o.keyOrder[1] != "rid" {
		t.Fatalf("key order = %v", o.keyOrder)
	}
	if o.sampleNum != 1 || o.sampleDen != 10 {
		t.Fatalf("sample = %d/%d", o.sampleNum, o.sampleDen)
	}
	if o.file != filepath.Join("/var/log/relaybot", "bot.log") {
		t.Fatalf("file = %q", o.file)
	}

	cfg.Logging.Format = "json"
	cfg.Logging.DebugSample = "-1/5"
	o = resolveOptions(cfg)
	if o.format != formatJSON {
		t.Fatal("explicit json must win over the dev profile")
	}
	if o.sampleNum != 1 || o.sampleDen != 50 {
		t.Fatalf("invalid sample should fall back, got %d/%d", o.sampleNum, o.sampleDen)
	}
}

func TestWithAttrsKeepsGroupPrefix(t *testing.T) {
	line := capture(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("db").With("host", "pg").WithGroup("pool").Info("stats", slog.Int("open", 3))
	})
	for _, want := range []string{"db.host=pg", "db.pool.open=3", "event=stats"} {
		if !slices.Contains(strings.Fields(line), want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
}
