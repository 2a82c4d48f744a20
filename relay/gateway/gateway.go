// Package gateway binds the relay service to Telegram: it turns updates into
// relay events and delivers the resulting actions through the bot API.
package gateway

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/relaybot/core/logger"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/router"
	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

const component = "relay.gateway"

// Sender is the part of the bot API used for delivery.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Options configures a Gateway.
type Options struct {
	// Admin is the operator identity; admin-only commands reject everyone else.
	Admin relay.UID
	// Throttled is shown to users hitting the flood throttle.
	Throttled string
	// Sender overrides the bot taken from the update context.
	Sender Sender
}

// Gateway adapts Telegram updates to a relay.Handler.
type Gateway struct {
	svc  relay.Handler
	opts Options
}

// New builds a gateway in front of svc.
func New(svc relay.Handler, opts Options) *Gateway {
	return &Gateway{svc: svc, opts: opts}
}

type commandSpec struct {
	name        string
	description string
	adminOnly   bool
}

var commandSpecs = []commandSpec{
	{name: "start", description: "Botni ishga tushirish"},
	{name: "cancel", description: "Bekor qilish"},
	{name: "blocked", description: "Bloklanganlar ro'yxati", adminOnly: true},
	{name: "limited", description: "Limiti tugaganlar", adminOnly: true},
	{name: "stats", description: "Statistika", adminOnly: true},
	{name: "toggle", description: "Taklif tugmasi boshqaruvi", adminOnly: true},
}

// messageEndpoints are the non-command updates routed to the service. Media
// kinds other than photo and video arrive as unsupported events.
var messageEndpoints = []string{
	tele.OnPhoto,
	tele.OnVideo,
	tele.OnMedia,
	tele.OnSticker,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnPoll,
	tele.OnDice,
}

// Register adds the relay commands and callbacks to reg and makes the gateway
// the fallback for unmatched text and callbacks.
func (g *Gateway) Register(reg *tg.Registry) {
	for _, spec := range commandSpecs {
		_ = reg.RegisterCommand("/"+spec.name, tg.Command{
			Handler:     g.Handle,
			Description: spec.description,
			AdminOnly:   spec.adminOnly,
		})
	}
	for _, key := range relay.CallbackKeys {
		_ = reg.RegisterCallback(key, g.Handle)
	}
	reg.SetCallbackNotFound(g.Handle)
	reg.SetTextFallback(g.Handle)
}

// Routes returns every route the relay needs, built from reg.
func (g *Gateway) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       int64(g.opts.Admin),
		OnAdminReject: g.Handle,
	})
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Endpoints: messageEndpoints,
		Unknown:   g.Handle,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: g.Handle}))
	return routes
}

// Handle is the telebot handler for every relay update.
func (g *Gateway) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev, ok := g.Event(c)
	if !ok {
		logger.Debug(ctx, component, "update.skip")
		return nil
	}
	return g.Execute(c, g.svc.Handle(ctx, ev))
}

// Throttled answers an update dropped by the flood throttle.
func (g *Gateway) Throttled(c tele.Context) error {
	if g.opts.Throttled == "" {
		return nil
	}
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: g.opts.Throttled})
	}
	return tghelpers.SendText(c, g.opts.Throttled)
}

// Event converts an update into a relay event. Updates without a sender are
// reported as not ok.
func (g *Gateway) Event(c tele.Context) (relay.Event, bool) {
	u := c.Sender()
	if u == nil {
		return relay.Event{}, false
	}
	a := AuthorOf(u)

	if c.Callback() != nil {
		cb := relay.ParseCallback(callbacks.CallbackKey(c), callbacks.CallbackPayload(c))
		return relay.CallbackEvent(a, cb), true
	}

	m := c.Message()
	if m == nil {
		return relay.Event{}, false
	}
	switch {
	case m.Photo != nil:
		return relay.PhotoEvent(a, m.Photo.FileID, m.Caption), true
	case m.Video != nil:
		return relay.VideoEvent(a, m.Video.FileID, m.Caption), true
	case m.Text != "":
		if name, ok := commandOf(m.Text); ok {
			return relay.CommandEvent(a, name), true
		}
		return relay.TextEvent(a, m.Text), true
	}
	return relay.Event{Author: a, Kind: relay.PayloadUnsupported}, true
}

// AuthorOf maps a Telegram user to a relay author.
func AuthorOf(u *tele.User) relay.Author {
	return relay.Author{
		ID:          relay.UID(u.ID),
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
		Username:    u.Username,
	}
}

// commandOf returns the name of a known relay command in text.
func commandOf(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	name = strings.ToLower(name)
	for _, spec := range commandSpecs {
		if spec.name == name {
			return name, true
		}
	}
	return "", false
}

// Execute answers the callback in place and queues the remaining actions as a
// single ordered delivery.
func (g *Gateway) Execute(c tele.Context, actions []relay.Action) error {
	ctx := tghelpers.BuildContext(c)
	outbound := make([]relay.Action, 0, len(actions))
	for _, a := range actions {
		if a.Kind == relay.ActionAnswerCallback {
			if err := c.Respond(); err != nil {
				logger.Warn(ctx, component, "callback.answer", slog.String("err", err.Error()))
			}
			continue
		}
		outbound = append(outbound, a)
	}
	if len(outbound) == 0 {
		return nil
	}
	d := newDelivery(ctx, g.senderFor(c), outbound)
	return tghelpers.Dispatch(c, "relay.deliver", "send", d.run)
}

func (g *Gateway) senderFor(c tele.Context) Sender {
	if g.opts.Sender != nil {
		return g.opts.Sender
	}
	return c.Bot()
}
