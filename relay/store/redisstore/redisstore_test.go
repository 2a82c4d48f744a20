package redisstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/relaybot/relay/store"
)

// These tests need a live server: REDIS_ADDR=localhost:6379 go test ./...
func openTest(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := Open(ctx, Options{Addr: addr, Prefix: "relaybot-test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	if _, err := s.Load(ctx, "users"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Save(ctx, "users", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "users")
	if err != nil || string(got) != `[1]` {
		t.Fatalf("got %s, %v", got, err)
	}
}

func TestLockExclusive(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	s.opts.LockRetries = 2
	s.opts.LockWait = 10 * time.Millisecond

	unlock, err := s.Lock(ctx, "state")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := s.Lock(ctx, "state"); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second lock err = %v, want ErrLockBusy", err)
	}
	unlock()
	unlock2, err := s.Lock(ctx, "state")
	if err != nil {
		t.Fatalf("lock after unlock: %v", err)
	}
	unlock2()
}

func TestDefaults(t *testing.T) {
	s := New(nil, Options{Prefix: "p:"})
	if s.opts.LockTTL != 5*time.Second || s.opts.LockRetries != 20 || s.opts.LockWait != 50*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", s.opts)
	}
	if s.key("state") != "p:state" || s.lockKey("state") != "p:lock:state" {
		t.Fatalf("keys = %s %s", s.key("state"), s.lockKey("state"))
	}
}
