package middleware

import (
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	component = "tg"
	loggedKey = "update_logged"
)

// LoggerMiddleware builds the update logging context and writes a sampled
// update.received line. Nested installs log the update once.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logged, _ := c.Get(loggedKey).(bool); !logged {
			c.Set(loggedKey, true)
			if logger.ShouldSampleDebug() {
				logger.LogEvent(ctx, logger.Component(component), slog.LevelDebug, "update.received", receiptAttrs(c)...)
			}
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs,
			slog.String("username", user.Username),
			slog.String("lang", user.LanguageCode),
		)
	}

	upd := c.Update()
	switch {
	case upd.Callback != nil:
		if key := callbacks.CallbackKey(c); key != "" {
			attrs = append(attrs, slog.String("cb_key", key))
		}
		if payload := callbacks.CallbackPayload(c); payload != "" {
			attrs = append(attrs, slog.String("payload", payload))
		}
	case upd.Message != nil:
		if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", text))
		}
	}
	return attrs
}
