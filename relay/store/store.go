// Package store persists the relay's shared state. Each named store holds one
// JSON document in a pluggable backend and serialises read-modify-write cycles.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay"
	relaymetrics "github.com/m3rciful/relaybot/relay/metrics"
)

const component = "relay.store"

// Store names double as file names and keys in the backends.
const (
	NameUsers    = "users"
	NameBlocked  = "blocked"
	NameLimited  = "limit"
	NameSettings = "settings"
	NameState    = "state"
)

// ErrNotFound is returned by a Backend when nothing is stored under a name.
var ErrNotFound = errors.New("store: not found")

// Backend persists raw documents by name.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

// Locker is implemented by backends shared between processes. The returned
// unlock func must be called once the update is saved.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// Pinger is implemented by backends with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a typed document with load/save/update semantics. Reads and writes
// never fail from the caller's view: failures degrade to the default value or
// to a logged, unsaved write.
type Store[T any] struct {
	name    string
	backend Backend
	def     func() T
	mu      sync.Mutex
}

// New creates a store named name over backend; def builds the value used when
// nothing is stored or the stored document is unreadable.
func New[T any](backend Backend, name string, def func() T) *Store[T] {
	return &Store[T]{name: name, backend: backend, def: def}
}

// Name returns the store name.
func (s *Store[T]) Name() string { return s.name }

// Load returns the current value, or the default.
func (s *Store[T]) Load(ctx context.Context) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save replaces the stored value. The error is returned for callers that care;
// it has already been logged and counted.
func (s *Store[T]) Save(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, v)
}

// Update runs fn on the current value and saves it if fn reports a change.
// The whole cycle holds the store mutex and, when the backend supports it,
// the backend lock. It returns the value as left by fn. If the backend lock
// cannot be taken, fn is not run and the stored value is returned unchanged;
// the dropped write counts as a save failure.
func (s *Store[T]) Update(ctx context.Context, fn func(v *T) bool) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.backend.(Locker); ok {
		unlock, err := l.Lock(ctx, s.name)
		if err != nil {
			relaymetrics.IncStoreSaveFailure(s.name)
			logger.Error(ctx, component, "lock.fail",
				slog.String("store", s.name),
				slog.String("err", err.Error()),
			)
			return s.load(ctx)
		}
		defer unlock()
	}

	v := s.load(ctx)
	if fn(&v) {
		_ = s.save(ctx, v)
	}
	return v
}

func (s *Store[T]) load(ctx context.Context) T {
	data, err := s.backend.Load(ctx, s.name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			relaymetrics.IncStoreLoadFailure(s.name)
			logger.Warn(ctx, component, "load.fail",
				slog.String("store", s.name),
				slog.String("err", err.Error()),
			)
		}
		return s.def()
	}
	v := s.def()
	if err := json.Unmarshal(data, &v); err != nil {
		relaymetrics.IncStoreLoadFailure(s.name)
		logger.Warn(ctx, component, "decode.fail",
			slog.String("store", s.name),
			slog.Int("bytes", len(data)),
			slog.String("err", err.Error()),
		)
		return s.def()
	}
	return v
}

func (s *Store[T]) save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err == nil {
		err = s.backend.Save(ctx, s.name, data)
	}
	if err != nil {
		relaymetrics.IncStoreSaveFailure(s.name)
		logger.Error(ctx, component, "save.fail",
			slog.String("store", s.name),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("store %s: save: %w", s.name, err)
	}
	logger.Debug(ctx, component, "save.ok",
		slog.String("store", s.name),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Stores groups the five named stores shared by the engine and the router.
type Stores struct {
	Users    *Store[relay.UIDSet]
	Blocked  *Store[relay.UIDSet]
	Limited  *Store[relay.UIDSet]
	Settings *Store[relay.Settings]
	States   *Store[relay.StateMap]
}

func emptySet() relay.UIDSet { return relay.UIDSet{} }

func emptyStates() relay.StateMap { return relay.StateMap{} }

// NewStores builds all stores over one backend.
func NewStores(b Backend) *Stores {
	return &Stores{
		Users:    New(b, NameUsers, emptySet),
		Blocked:  New(b, NameBlocked, emptySet),
		Limited:  New(b, NameLimited, emptySet),
		Settings: New(b, NameSettings, relay.DefaultSettings),
		States:   New(b, NameState, emptyStates),
	}
}
