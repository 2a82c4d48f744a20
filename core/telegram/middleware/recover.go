package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/relaybot/core/logger"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrPanic wraps a panic value recovered from a handler.
var ErrPanic = errors.New("handler panic")

// RecoverMiddleware turns a handler panic into an ErrPanic error so one bad
// update cannot stop the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			coremetrics.IncPanicRecovered()
			logger.Error(tghelpers.BuildContext(c), component, "tg.panic",
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}()
		return next(c)
	}
}
