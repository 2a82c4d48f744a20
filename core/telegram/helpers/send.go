package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs d for Dispatch. With nil, jobs run inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// Dispatch hands run to the dispatcher shard of the update's chat, so jobs of
// one chat keep their order. When the dispatcher is missing or closed, or the
// shard stays full past the dispatcher's EnqueueWait, the job runs inline in
// the caller's goroutine and may overtake jobs still queued for that chat.
func Dispatch(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := d.Enqueue(ctx, sender.Job{Action: action, Endpoint: endpoint, Key: orderKey(c), Run: run})
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// orderKey is the chat id, or the sender id for updates without a chat.
func orderKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// SendText sends plain text to the current chat through Dispatch.
func SendText(c tele.Context, text string) error {
	return Dispatch(c, "send.text", "sendMessage", func() error {
		return c.Send(text)
	})
}
