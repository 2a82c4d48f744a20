package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

type lockedBuffer struct {
	mu sync.Mutex
	bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Buffer.String()
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFlushWritesQueuedLines(t *testing.T) {
	a, b := &lockedBuffer{}, &lockedBuffer{}
	aw := newAsyncWriter([]io.Writer{a, nil, b}, 16)
	for i := 0; i < 100; i++ {
		if err := aw.Write([]byte("line\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	for name, buf := range map[string]*lockedBuffer{"a": a, "b": b} {
		if n := strings.Count(buf.String(), "line\n"); n != 100 {
			t.Fatalf("sink %s got %d lines, want 100", name, n)
		}
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAsyncWriterAfterClose(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{&lockedBuffer{}}, 0)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := aw.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close = %v, want errWriterClosed", err)
	}
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncWriterReportsSinkError(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	_ = aw.Write([]byte("boom\n"))
	if err := aw.Close(); err == nil {
		t.Fatal("expected sink error on close")
	}
	if err := aw.Write([]byte("again\n")); err == nil {
		t.Fatal("expected sticky error")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 4)
	allowed := 0
	for i := 0; i < 40; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 10 {
		t.Fatalf("allowed = %d, want 10", allowed)
	}

	s.Set(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}

	s.Set(9, 3)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("ratio above one must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"":      {0, 0},
		"1/50":  {1, 50},
		" 2/3 ": {2, 3},
		"10":    {1, 10},
		"0":     {0, 0},
		"x/2":   {0, 0},
		"abc":   {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
}
