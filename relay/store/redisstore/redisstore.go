// Package redisstore keeps relay documents in Redis and guards updates with a
// token lock so several bot processes can share one state.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay/store"
)

// ErrLockBusy is returned when the lock stays held by another process.
var ErrLockBusy = errors.New("redisstore: lock busy")

// Options configures the backend.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys, e.g. "relaybot:" -> relaybot:state.
	Prefix string
	// LockTTL bounds how long a crashed holder can block others; 0 -> 5s.
	LockTTL time.Duration
	// LockRetries and LockWait control acquisition; 0 -> 20 tries 50ms apart.
	LockRetries int
	LockWait    time.Duration
}

// Store is a store.Backend and store.Locker over go-redis.
type Store struct {
	cli  *redis.Client
	opts Options
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options) (*Store, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "db", "db.connect",
		slog.String("driver", "redis"),
		slog.String("addr", opts.Addr),
		slog.Int("db", opts.DB),
	)
	return New(c, opts), nil
}

// New wraps an existing client.
func New(c *redis.Client, opts Options) *Store {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Second
	}
	if opts.LockRetries <= 0 {
		opts.LockRetries = 20
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 50 * time.Millisecond
	}
	return &Store{cli: c, opts: opts}
}

func (s *Store) key(name string) string { return s.opts.Prefix + name }

func (s *Store) lockKey(name string) string { return s.opts.Prefix + "lock:" + name }

// Load implements store.Backend.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := s.cli.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

// Save implements store.Backend.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if err := s.cli.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Lock implements store.Locker with SET NX and a random token.
func (s *Store) Lock(ctx context.Context, name string) (func(), error) {
	key := s.lockKey(name)
	token := uuid.NewString()
	for i := 0; i < s.opts.LockRetries; i++ {
		ok, err := s.cli.SetNX(ctx, key, token, s.opts.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", name, err)
		}
		if ok {
			return func() {
				// the caller's context may already be done
				uctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := luaUnlock.Run(uctx, s.cli, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					logger.Warn(ctx, "relay.store", "unlock.fail",
						slog.String("store", name),
						slog.String("err", err.Error()),
					)
				}
			}, nil
		}
		t := time.NewTimer(s.opts.LockWait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, ErrLockBusy
}

// Ping implements store.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.cli.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.cli.Close()
}
