package database

import (
	"net/url"
	"strings"
	"time"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// ReadyTimeout bounds the wait for the server at startup; 0 means 30s.
	ReadyTimeout time.Duration `yaml:"ready_timeout" envconfig:"DB_READY_TIMEOUT"`
	// MigrationsDir is resolved against the working directory when relative.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// DSN renders the keyword/value form accepted by lib/pq. Values are quoted
// so passwords with spaces or quotes survive.
func (c Config) DSN() string {
	pairs := [][2]string{
		{"host", c.Host},
		{"port", c.Port},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.Name},
		{"sslmode", c.sslMode()},
	}
	var b strings.Builder
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(quoteDSN(kv[1]))
	}
	return b.String()
}

func quoteDSN(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// URL renders the postgres:// form accepted by golang-migrate.
func (c Config) URL() string {
	host := c.Host
	if c.Port != "" {
		host += ":" + c.Port
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     host,
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.sslMode()}}.Encode(),
	}
	return u.String()
}

func (c Config) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}
