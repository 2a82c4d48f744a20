package middleware

import (
	"sync/atomic"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters tracks what was sent back while one update was handled.
// Sends may finish on dispatcher goroutines, hence the atomics.
type replyCounters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// CountSent records one outgoing message for the update behind c.
func CountSent(c tele.Context, keyboard bool) {
	if rc, ok := c.Get(countersKey).(*replyCounters); ok {
		rc.messages.Add(1)
		if keyboard {
			rc.keyboard.Store(true)
		}
	}
	coremetrics.IncMessageSent(keyboard)
}

// GetCounters returns the number of messages sent for the update so far and
// whether any of them carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	rc, ok := c.Get(countersKey).(*replyCounters)
	if !ok {
		return 0, false
	}
	return int(rc.messages.Load()), rc.keyboard.Load()
}

// countingContext counts successful Send, Reply and Edit calls.
type countingContext struct{ tele.Context }

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) count(err error, opts []interface{}) error {
	if err == nil {
		CountSent(m.Context, hasKeyboard(opts))
	}
	return err
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts updates by kind, times their handling and
// installs the reply counters read by GetCounters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		kind := UpdateKind(c.Update())
		coremetrics.IncUpdate(kind)
		c.Set(countersKey, &replyCounters{})

		start := time.Now()
		err := next(countingContext{Context: c})
		coremetrics.ObserveUpdate(kind, time.Since(start))
		return err
	}
}

// UpdateKind classifies an update for metrics and rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
