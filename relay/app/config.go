package app

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coredatabase "github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/relay"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// StorageConfig selects where the five relay stores live.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// Dir holds <store>.json files for the file driver.
	Dir string `yaml:"dir" envconfig:"STORAGE_DIR"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORAGE_SQLITE_PATH"`
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string        `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	LockTTL  time.Duration `yaml:"lock_ttl" envconfig:"REDIS_LOCK_TTL"`
}

// MetricsConfig configures the Prometheus and health endpoint.
type MetricsConfig struct {
	// Listen is the bind address, e.g. ":9090"; empty disables the endpoint.
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// SenderConfig tunes the outbound dispatcher.
type SenderConfig struct {
	Workers      int           `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize    int           `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff" envconfig:"SENDER_RETRY_BACKOFF"`
	EnqueueWait  time.Duration `yaml:"enqueue_wait" envconfig:"SENDER_ENQUEUE_WAIT"`
}

// RelayConfig holds conversation policy.
type RelayConfig struct {
	// MaxProposalItems caps the items of one proposal; 0 means unlimited.
	MaxProposalItems int `yaml:"max_proposal_items" envconfig:"RELAY_MAX_PROPOSAL_ITEMS"`
}

// Config is the full relay bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Sender   SenderConfig        `yaml:"sender"`
	Relay    RelayConfig         `yaml:"relay"`
	Texts    relay.Texts         `yaml:"texts" ignored:"true"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     DriverFile,
			Dir:        "data",
			SQLitePath: "data/relay.db",
		},
		Redis: RedisConfig{Prefix: "relaybot:"},
		Sender: SenderConfig{
			Workers:      4,
			QueueSize:    256,
			MaxRetries:   3,
			RetryBackoff: time.Second,
		},
		Texts: relay.DefaultTexts(),
	}
}

// Load reads configuration from a YAML file overlaid by environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := coreconfig.LoadInto(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	s := &cfg.Storage
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = DriverFile
	}
	switch s.Driver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(s.Dir) == "" {
			s.Dir = "data"
		}
	case DriverSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres driver")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	case DriverRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, memory, sqlite, postgres, redis", s.Driver)
	}

	if cfg.Relay.MaxProposalItems < 0 {
		return fmt.Errorf("relay.max_proposal_items must be >= 0")
	}
	if cfg.Redis.LockTTL < 0 {
		return fmt.Errorf("redis.lock_ttl must be >= 0")
	}
	if cfg.Sender.MaxRetries < 0 || cfg.Sender.RetryBackoff < 0 {
		return fmt.Errorf("sender.max_retries and sender.retry_backoff must be >= 0")
	}

	fillTexts(&cfg.Texts, relay.DefaultTexts())
	return nil
}

// fillTexts replaces blank entries of t with the matching default.
func fillTexts(t *relay.Texts, def relay.Texts) {
	tv := reflect.ValueOf(t).Elem()
	dv := reflect.ValueOf(def)
	for i := 0; i < tv.NumField(); i++ {
		f := tv.Field(i)
		if f.Kind() == reflect.String && strings.TrimSpace(f.String()) == "" {
			f.SetString(dv.Field(i).String())
		}
	}
}
