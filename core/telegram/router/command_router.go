package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/m3rciful/relaybot/core/logger"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminID int64
	// OnAdminReject receives AdminOnly commands sent by anyone else.
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, sorted by name.
// AdminOnly commands are guarded by the admin check.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	guard := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		cmd := cmds[name]
		h := func(c tele.Context) error {
			return newRouted(name).run(c, cmd.Handler)
		}
		h = middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
		if cmd.AdminOnly {
			h = guard(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.Info(context.Background(), "tg.wire", "complete",
		slog.Int("commands", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
