package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func waitClosed(t *testing.T, d *Dispatcher) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not drain")
	}
}

func TestSameKeyRunsInOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 400})

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 50; i++ {
		i := i
		err := d.Enqueue(context.Background(), Job{Action: "test", Key: 42, Run: func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}})
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	waitClosed(t, d)

	if len(got) != 50 {
		t.Fatalf("ran %d jobs, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d ran at position %d", v, i)
		}
	}
}

func TestRetryableErrorIsRetried(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})

	calls := 0
	err := d.Enqueue(context.Background(), Job{Action: "test", Run: func() error {
		calls++
		if calls < 3 {
			return timeoutErr{}
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitClosed(t, d)

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d, want 0", d.ErrorCount())
	}
}

func TestPermanentErrorFailsOnce(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Millisecond})

	calls := 0
	err := d.Enqueue(context.Background(), Job{Action: "test", Run: func() error {
		calls++
		return errors.New("bad request")
	}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitClosed(t, d)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	waitClosed(t, d)

	err := d.Enqueue(context.Background(), Job{Run: func() error { return nil }})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	// second Close must not panic
	d.Close()
}

func TestEnqueueFullShard(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueWait: -1})
	release := make(chan struct{})
	started := make(chan struct{})

	block := Job{Run: func() error {
		close(started)
		<-release
		return nil
	}}
	if err := d.Enqueue(context.Background(), block); err != nil {
		t.Fatalf("enqueue blocker: %v", err)
	}
	<-started
	if err := d.Enqueue(context.Background(), Job{Run: func() error { return nil }}); err != nil {
		t.Fatalf("enqueue queued: %v", err)
	}
	err := d.Enqueue(context.Background(), Job{Run: func() error { return nil }})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(release)
	waitClosed(t, d)
}

func TestEnqueueWaitsForRoomInOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueWait: 5 * time.Second})
	release := make(chan struct{})
	started := make(chan struct{})

	var mu sync.Mutex
	var order []int
	record := func(n int) func() error {
		return func() error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		}
	}

	if err := d.Enqueue(context.Background(), Job{Key: 7, Run: func() error {
		close(started)
		<-release
		return record(1)()
	}}); err != nil {
		t.Fatalf("enqueue blocker: %v", err)
	}
	<-started
	if err := d.Enqueue(context.Background(), Job{Key: 7, Run: record(2)}); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	if err := d.Enqueue(context.Background(), Job{Key: 7, Run: record(3)}); err != nil {
		t.Fatalf("enqueue into a full shard must wait for room: %v", err)
	}
	waitClosed(t, d)

	if fmt.Sprint(order) != "[1 2 3]" {
		t.Fatalf("order = %v", order)
	}
}

func TestEnqueueFullShardGivesUpWithContext(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueWait: time.Minute})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), Job{Run: func() error {
		close(started)
		<-release
		return nil
	}})
	<-started
	_ = d.Enqueue(context.Background(), Job{Run: func() error { return nil }})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Enqueue(ctx, Job{Run: func() error { return nil }}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(release)
	waitClosed(t, d)
}

func TestEnqueueNilRun(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	defer d.Close()
	if err := d.Enqueue(context.Background(), Job{}); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), "timeout"},
		{"net timeout", timeoutErr{}, "timeout"},
		{"plain", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Fatalf("ClassifyError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:ABC-def_9/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
