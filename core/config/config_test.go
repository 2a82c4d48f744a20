package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{Telegram: TelegramConfig{Token: " token ", AdminID: 42}}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	cfg.Logging.Level = " INFO "
	cfg.RateLimit.ExcludeUpdates = []string{" Callback", "", "MESSAGE"}

	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.Token != "token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	got := strings.Join(cfg.RateLimit.ExcludeUpdates, ",")
	if got != "callback,message" {
		t.Fatalf("exclude updates = %q", got)
	}
}

func TestNormalizeWebhookListenDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com/hook", Port: 8443}

	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Webhook.Listen != "0.0.0.0" {
		t.Fatalf("listen = %q", cfg.Webhook.Listen)
	}
}

func TestNormalizeErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"missing token":     func(c *Config) { c.Telegram.Token = "  " },
		"missing admin":     func(c *Config) { c.Telegram.AdminID = 0 },
		"bad run mode":      func(c *Config) { c.Telegram.RunMode = "push" },
		"webhook no url":    func(c *Config) { c.Telegram.RunMode = RunModeWebhook; c.Webhook.Port = 80 },
		"webhook no port":   func(c *Config) { c.Telegram.RunMode = RunModeWebhook; c.Webhook.URL = "https://x" },
		"negative timeout":  func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 },
		"bad level":         func(c *Config) { c.Logging.Level = "verbose" },
		"bad format":        func(c *Config) { c.Logging.Format = "xml" },
		"negative interval": func(c *Config) { c.RateLimit.IntervalMS = -5 },
		"bad exclude":       func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline_query"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if err := Normalize(nil); err == nil {
		t.Fatal("nil config must fail")
	}
}

func TestLoadIntoFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `telegram:
  token: from-file
  admin_id: 7
  run_mode: longpoll
logging:
  level: debug
  keys_order: rid,event
rate_limit:
  interval_ms: 500
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("RATE_LIMIT_EXCLUDE_UPDATES", "callback")

	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, env must win", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 7 || cfg.Logging.Level != "debug" || cfg.Logging.KeysOrder != "rid,event" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.RateLimit.IntervalMS != 500 || len(cfg.RateLimit.ExcludeUpdates) != 1 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestLoadIntoErrors(t *testing.T) {
	var cfg Config
	if err := LoadInto(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatal("missing file must fail")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("telegram: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadInto(path, &cfg); err == nil {
		t.Fatal("malformed yaml must fail")
	}
}

func TestNormalizeReportsAllErrors(t *testing.T) {
	cfg := Config{Logging: LoggingConfig{Level: "loud"}}
	err := Normalize(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"telegram.token", "telegram.admin_id", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
