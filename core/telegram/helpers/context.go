package helpers

import (
	"context"

	"github.com/m3rciful/relaybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys in the per-update telebot store.
const (
	contextKey = "logger_ctx"
	ridKey     = "rid"
)

// StoreContext attaches ctx to the update for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// BuildContext returns the logging context of the update, creating it with
// rid and update/user/chat metadata on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx
	}

	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}

	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
		c.Set(ridKey, rid)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// Annotate replaces the update context with edit(ctx) and returns it.
func Annotate(c tele.Context, edit func(context.Context) context.Context) context.Context {
	ctx := edit(BuildContext(c))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	return Annotate(c, func(ctx context.Context) context.Context {
		return logger.WithHandler(ctx, handler)
	})
}

// WithRole tags the update context with the author role.
func WithRole(c tele.Context, role string) context.Context {
	return Annotate(c, func(ctx context.Context) context.Context {
		return logger.WithRole(ctx, role)
	})
}
