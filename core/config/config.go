// Package config holds the settings shared by every bot built on core: the
// Telegram connection, webhook listener, logging and the flood throttle.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds the bot credentials and update delivery mode.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminID is the single operator account; every bot built on core has one.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile is "debug"/"dev" for human readable output, anything else for prod.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds the flood throttle can be told to skip.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// RateLimitConfig configures the per-user flood throttle. IntervalMS of 0
// disables it.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LoadInto decodes the YAML file at path into dst and then applies environment
// overrides. dst is usually a bot config embedding Config inline; values already
// present in dst survive keys the file leaves out.
func LoadInto(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	return nil
}

var (
	logLevels  = []string{"debug", "info", "warn", "warning", "error"}
	logFormats = []string{"json", "kv", "text", "pretty"}
)

// Normalize fills defaults in place and reports every invalid field at once.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	return errors.Join(
		cfg.normalizeTelegram(),
		cfg.normalizeLogging(),
		cfg.RateLimit.normalize(),
	)
}

func (c *Config) normalizeTelegram() error {
	t := &c.Telegram
	var errs []error

	if t.Token = strings.TrimSpace(t.Token); t.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if t.AdminID <= 0 {
		errs = append(errs, errors.New("telegram.admin_id is required"))
	}
	if t.LongPollTimeoutSeconds < 0 {
		errs = append(errs, errors.New("telegram.longpoll_timeout_seconds must be >= 0"))
	}

	switch mode := strings.ToLower(strings.TrimSpace(t.RunMode)); mode {
	case "", "polling", RunModeLongpoll:
		t.RunMode = RunModeLongpoll
	case RunModeWebhook:
		t.RunMode = mode
		errs = append(errs, c.Webhook.normalize())
	default:
		errs = append(errs, fmt.Errorf("telegram.run_mode %q: want %s or %s", t.RunMode, RunModeWebhook, RunModeLongpoll))
	}
	return errors.Join(errs...)
}

func (w *WebhookConfig) normalize() error {
	var errs []error
	if strings.TrimSpace(w.URL) == "" {
		errs = append(errs, errors.New("webhook.url is required in webhook mode"))
	}
	if w.Port <= 0 {
		errs = append(errs, errors.New("webhook.port must be > 0 in webhook mode"))
	}
	if strings.TrimSpace(w.Listen) == "" {
		w.Listen = "0.0.0.0"
	}
	return errors.Join(errs...)
}

func (c *Config) normalizeLogging() error {
	return errors.Join(
		oneOf("logging.level", &c.Logging.Level, logLevels),
		oneOf("logging.format", &c.Logging.Format, logFormats),
	)
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	var kept []string
	for _, v := range r.ExcludeUpdates {
		switch kind := strings.ToLower(strings.TrimSpace(v)); kind {
		case "":
		case UpdateCallback, UpdateMessage:
			kept = append(kept, kind)
		default:
			return fmt.Errorf("rate_limit.exclude_updates %q: want %s or %s", v, UpdateCallback, UpdateMessage)
		}
	}
	r.ExcludeUpdates = kept
	return nil
}

// oneOf lowercases *v and checks it against allowed; empty is accepted.
func oneOf(field string, v *string, allowed []string) error {
	*v = strings.ToLower(strings.TrimSpace(*v))
	if *v == "" || slices.Contains(allowed, *v) {
		return nil
	}
	return fmt.Errorf("%s %q: want one of %s", field, *v, strings.Join(allowed, ", "))
}
