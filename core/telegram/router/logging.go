package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Status values of the handler.handled line.
const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// routed describes one update dispatched by a router.
type routed struct {
	name   string
	start  time.Time
	extras []slog.Attr
}

func newRouted(name string, extras ...slog.Attr) routed {
	return routed{name: handlerName(name), start: time.Now(), extras: extras}
}

// run invokes h and writes the handler.handled summary. A nil h is logged as
// skipped.
func (r routed) run(c tele.Context, h tele.HandlerFunc) error {
	ctx := tghelpers.WithHandler(c, r.name)

	status := statusSkip
	var err error
	if h != nil {
		if err = h(c); err != nil {
			status = statusFail
		} else {
			status = statusOK
		}
	}

	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome(err)),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(r.start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", err.Error()),
			slog.String("error_kind", sender.ClassifyError(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", append(attrs, r.extras...)...)
	return err
}

func outcome(err error) string {
	if err != nil {
		return statusFail
	}
	return statusOK
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(name), "_")
}
