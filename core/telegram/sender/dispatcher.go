// Package sender runs outbound Telegram calls off the update goroutine.
//
// Jobs are sharded by Key over a fixed set of workers, so jobs that share a
// key (one chat) execute one after another in the order they were enqueued
// while different chats proceed in parallel. Enqueue waits up to EnqueueWait
// for room in a full shard; a job refused after that is not ordered against
// the shard, and callers that run it themselves give up that ordering.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	"github.com/m3rciful/relaybot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the shard queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the total capacity, split evenly across workers.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// EnqueueWait is how long Enqueue waits for room in a full shard;
	// 0 means 2s, negative means no wait.
	EnqueueWait time.Duration
}

// Job is one outbound call. Run must be safe to call again after a retryable
// failure.
type Job struct {
	Action   string
	Endpoint string
	Key      int64
	Run      func() error
}

type queued struct {
	ctx context.Context
	Job
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts   Options
	shards []chan queued

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	if opts.EnqueueWait == 0 {
		opts.EnqueueWait = 2 * time.Second
	}

	per := opts.QueueSize / opts.Workers
	if per < 1 {
		per = 1
	}
	d := &Dispatcher{opts: opts, shards: make([]chan queued, opts.Workers)}
	d.wg.Add(opts.Workers)
	for i := range d.shards {
		d.shards[i] = make(chan queued, per)
		go d.worker(d.shards[i])
	}
	return d
}

// Enqueue schedules j on the worker owning j.Key. When that shard is full it
// waits up to EnqueueWait, or until ctx is done, before returning ErrQueueFull.
func (d *Dispatcher) Enqueue(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	q, item := d.shard(j.Key), queued{ctx: ctx, Job: j}
	select {
	case q <- item:
		return nil
	default:
	}
	if d.opts.EnqueueWait < 0 {
		return ErrQueueFull
	}

	t := time.NewTimer(d.opts.EnqueueWait)
	defer t.Stop()
	select {
	case q <- item:
		return nil
	case <-t.C:
		return ErrQueueFull
	case <-ctx.Done():
		return errors.Join(ErrQueueFull, ctx.Err())
	}
}

func (d *Dispatcher) shard(key int64) chan queued {
	k := uint64(key)
	if key < 0 {
		k = uint64(-key)
	}
	return d.shards[k%uint64(len(d.shards))]
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.shards {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(q <-chan queued) {
	defer d.wg.Done()
	for j := range q {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j queued) {
	ctx := j.ctx
	deadline, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	logger.Debug(ctx, component, "send.start", jobAttrs(j.Job)...)

	attempts := d.opts.MaxRetries + 1
	var err error
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.Run(); err == nil {
			if attempt > 1 {
				logger.Info(ctx, component, "send.retry.success",
					append(jobAttrs(j.Job),
						slog.Int("attempts", attempt),
						slog.Duration("duration", time.Since(start)),
					)...,
				)
			}
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := d.backoff(err, attempt)
		logger.Debug(ctx, component, "send.retry.backoff",
			append(jobAttrs(j.Job),
				slog.Int("attempts", attempt),
				slog.Duration("backoff", delay),
				slog.String("error_kind", ClassifyError(err)),
			)...,
		)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			break retry
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	kind := ClassifyError(err)
	coremetrics.IncSendFailure(j.Action, kind)
	logger.Error(ctx, component, "send.fail",
		append(jobAttrs(j.Job),
			slog.String("err", sanitizeErrorMessage(err)),
			slog.String("error_kind", kind),
			slog.Duration("duration", time.Since(start)),
		)...,
	)
}

// backoff grows linearly with the attempt; flood replies wait as long as
// Telegram asks.
func (d *Dispatcher) backoff(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

func jobAttrs(j Job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.Action)}
	if j.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.Endpoint))
	}
	return attrs
}
