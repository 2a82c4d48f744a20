// Package moderation routes the operator's menu commands, inline button
// presses and pending replies.
package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay"
	relaymetrics "github.com/m3rciful/relaybot/relay/metrics"
	"github.com/m3rciful/relaybot/relay/store"
)

const component = "relay.moderation"

// Slash commands mirroring the admin menu.
const (
	CommandBlocked = "blocked"
	CommandLimited = "limited"
	CommandStats   = "stats"
	CommandToggle  = "toggle"
)

// Router handles events authored by the admin.
type Router struct {
	stores *store.Stores
	admin  relay.UID
	texts  relay.Texts
}

// New builds a router over stores.
func New(stores *store.Stores, admin relay.UID, texts relay.Texts) *Router {
	return &Router{stores: stores, admin: admin, texts: texts}
}

// Handle implements relay.Handler.
func (r *Router) Handle(ctx context.Context, ev relay.Event) []relay.Action {
	switch ev.Kind {
	case relay.PayloadCallback:
		return r.callback(ctx, ev.Callback)
	case relay.PayloadCommand:
		return r.command(ctx, ev.Command)
	case relay.PayloadText, relay.PayloadPhoto, relay.PayloadVideo:
		if out, ok := r.deliverReply(ctx, ev); ok {
			return out
		}
		if ev.Kind == relay.PayloadText {
			if out, ok := r.menu(ctx, strings.TrimSpace(ev.Text)); ok {
				return out
			}
		}
	}
	return r.fallback()
}

func (r *Router) fallback() []relay.Action {
	return []relay.Action{relay.SendText(r.admin, r.texts.AdminFallback)}
}

func (r *Router) command(ctx context.Context, name string) []relay.Action {
	switch name {
	case "start":
		return []relay.Action{relay.SendText(r.admin, r.texts.AdminWelcome, r.texts.AdminMenu())}
	case "cancel":
		if r.clearSlot(ctx) {
			relaymetrics.IncModeration("cancel_reply")
			return []relay.Action{relay.SendText(r.admin, r.texts.ReplyCancelled)}
		}
		return r.fallback()
	case CommandBlocked:
		return r.listBlocked(ctx)
	case CommandLimited:
		return r.listLimited(ctx)
	case CommandStats:
		return r.stats(ctx)
	case CommandToggle:
		return r.toggle(ctx)
	}
	return r.fallback()
}

func (r *Router) menu(ctx context.Context, label string) ([]relay.Action, bool) {
	switch label {
	case r.texts.AdminBlockedList:
		return r.listBlocked(ctx), true
	case r.texts.AdminLimitedList:
		return r.listLimited(ctx), true
	case r.texts.AdminStats:
		return r.stats(ctx), true
	case r.texts.AdminToggle:
		return r.toggle(ctx), true
	}
	return nil, false
}

// deliverReply consumes the reply slot, if set, and forwards the message.
func (r *Router) deliverReply(ctx context.Context, ev relay.Event) ([]relay.Action, bool) {
	var (
		target relay.UID
		taken  bool
	)
	r.stores.States.Update(ctx, func(m *relay.StateMap) bool {
		rec := m.Get(r.admin)
		if rec.Kind != relay.StateAdminAwaitingReply {
			return false
		}
		target, taken = rec.Target, true
		return m.Clear(r.admin)
	})
	if !taken {
		return nil, false
	}

	var fwd relay.Action
	switch ev.Kind {
	case relay.PayloadPhoto:
		fwd = relay.SendPhoto(target, ev.Media, r.texts.AdminReply(ev.Text))
	case relay.PayloadVideo:
		fwd = relay.SendVideo(target, ev.Media, r.texts.AdminReply(ev.Text))
	default:
		fwd = relay.SendText(target, r.texts.AdminReply(ev.Text))
	}
	relaymetrics.IncModeration("reply")
	logger.Info(ctx, component, "reply.sent",
		slog.Int64("target", int64(target)),
		slog.String("kind", ev.Kind.String()),
	)
	return []relay.Action{fwd, relay.SendText(r.admin, r.texts.ReplySent)}, true
}

func (r *Router) clearSlot(ctx context.Context) bool {
	cleared := false
	r.stores.States.Update(ctx, func(m *relay.StateMap) bool {
		cleared = m.Clear(r.admin)
		return cleared
	})
	return cleared
}

func (r *Router) listBlocked(ctx context.Context) []relay.Action {
	set := r.stores.Blocked.Load(ctx)
	if set.Len() == 0 {
		return []relay.Action{relay.SendText(r.admin, r.texts.NobodyBlocked)}
	}
	return []relay.Action{relay.SendText(r.admin, r.texts.BlockedList(set), r.texts.UnblockButtons(set))}
}

func (r *Router) listLimited(ctx context.Context) []relay.Action {
	set := r.stores.Limited.Load(ctx)
	if set.Len() == 0 {
		return []relay.Action{relay.SendText(r.admin, r.texts.NobodyLimited)}
	}
	return []relay.Action{relay.SendText(r.admin, r.texts.LimitedList(set), r.texts.ClearLimitKeyboard())}
}

func (r *Router) stats(ctx context.Context) []relay.Action {
	return []relay.Action{relay.SendText(r.admin, r.texts.Stats(r.stores.Users.Load(ctx).Len()))}
}

func (r *Router) toggle(ctx context.Context) []relay.Action {
	s := r.stores.Settings.Update(ctx, func(v *relay.Settings) bool {
		v.ProposalVisible = !v.ProposalVisible
		return true
	})
	relaymetrics.IncModeration("toggle")
	logger.Info(ctx, component, "settings.toggled", slog.Bool("proposal_visible", s.ProposalVisible))
	return []relay.Action{relay.SendText(r.admin, r.texts.Toggled(s.ProposalVisible))}
}
