package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures the per-user flood throttle. Exclude lists
// update kinds as returned by UpdateKind.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   []string
	OnLimited tele.HandlerFunc
}

type throttle struct {
	interval time.Duration
	exclude  map[string]struct{}

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	sweepAt  time.Time
}

// allow records an update from userID at now and reports whether it is far
// enough from the previous one.
func (t *throttle) allow(userID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.After(t.sweepAt) {
		for id, ts := range t.lastSeen {
			if now.Sub(ts) >= t.interval {
				delete(t.lastSeen, id)
			}
		}
		t.sweepAt = now.Add(time.Minute)
	}

	if last, ok := t.lastSeen[userID]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.lastSeen[userID] = now
	return true
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// opts.Interval. A rejected update is passed to opts.OnLimited if set.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	t := &throttle{
		interval: opts.Interval,
		exclude:  make(map[string]struct{}, len(opts.Exclude)),
		lastSeen: make(map[int64]time.Time),
	}
	for _, kind := range opts.Exclude {
		t.exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || t.interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := t.exclude[kind]; skip {
				return next(c)
			}
			if t.allow(user.ID, time.Now()) {
				return next(c)
			}

			coremetrics.IncRateLimitTriggered()
			logger.Warn(tghelpers.BuildContext(c), component, "tg.rate_limit",
				slog.String("kind", kind),
				slog.Duration("interval", t.interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
