package router

import (
	"log/slog"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound handles keys missing from the registry when the registry has
	// no fallback of its own.
	NotFound tele.HandlerFunc
}

// CallbackRoute binds tele.OnCallback and dispatches each press by its unique
// key. Handlers answer the callback query themselves.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	resolve := func(key string) (tele.HandlerFunc, bool) {
		if h, ok := reg.GetCallback(key); ok && h != nil {
			return h, true
		}
		if h := reg.CallbackNotFound(); h != nil {
			return h, false
		}
		return opts.NotFound, false
	}

	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		h, found := resolve(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		if !found {
			extras = append(extras, slog.String("reason", "not_found"))
		}
		return newRouted("callback."+handlerName(key), extras...).run(c, h)
	}

	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
