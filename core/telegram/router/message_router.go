package router

import (
	"strings"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions controls routing of non-command message updates.
type MessageOptions struct {
	// Endpoints lists the Telebot message endpoints to bind; tele.OnText is
	// always included.
	Endpoints []string
	// Unknown handles messages when the registry has no text fallback.
	Unknown tele.HandlerFunc
}

// MessageRoutes builds handlers for plain messages. Slash-prefixed text that
// names a public registry command runs that command; everything else, admin
// commands included, goes to the registry text fallback.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	fallback := func() tele.HandlerFunc {
		if reg != nil && reg.TextFallback() != nil {
			return reg.TextFallback()
		}
		return opts.Unknown
	}

	handler := func(c tele.Context) error {
		if reg != nil {
			if name, ok := commandName(c.Text()); ok {
				if key, cmd, ok := reg.LookupCommand(name); ok && !cmd.AdminOnly && cmd.Handler != nil {
					return newRouted(key).run(c, cmd.Handler)
				}
			}
		}
		fb := fallback()
		if fb == nil {
			return newRouted("unknown_message").run(c, nil)
		}
		return newRouted("message").run(c, fb)
	}

	wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler))
	seen := map[string]struct{}{tele.OnText: {}}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrapped}}
	for _, ep := range opts.Endpoints {
		if _, dup := seen[ep]; dup || ep == "" {
			continue
		}
		seen[ep] = struct{}{}
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}

// commandName extracts "/name" from "/name@bot args".
func commandName(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields[0]) < 2 || fields[0][0] != '/' {
		return "", false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name, true
}
