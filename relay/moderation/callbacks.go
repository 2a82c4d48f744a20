package moderation

import (
	"context"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay"
	relaymetrics "github.com/m3rciful/relaybot/relay/metrics"
)

func (r *Router) callback(ctx context.Context, cb relay.Callback) []relay.Action {
	if cb.Key == relay.CallbackClearLimit {
		r.stores.Limited.Update(ctx, func(v *relay.UIDSet) bool {
			if v.Len() == 0 {
				return false
			}
			*v = relay.UIDSet{}
			return true
		})
		relaymetrics.IncModeration(cb.Key)
		logger.Info(ctx, component, "limits.cleared")
		return []relay.Action{relay.SendText(r.admin, r.texts.LimitsCleared)}
	}

	target, err := cb.Target()
	if err != nil {
		logger.Warn(ctx, component, "callback.invalid",
			slog.String("cb", cb.String()),
			slog.String("err", err.Error()),
		)
		return nil
	}

	switch cb.Key {
	case relay.CallbackBlock:
		changed := false
		r.stores.Blocked.Update(ctx, func(v *relay.UIDSet) bool {
			changed = v.Add(target)
			return changed
		})
		if !changed {
			return nil
		}
		relaymetrics.IncModeration(cb.Key)
		logger.Info(ctx, component, "user.blocked", slog.Int64("target", int64(target)))
		return []relay.Action{relay.SendText(r.admin, relay.WithID(r.texts.UserBlocked, target))}

	case relay.CallbackUnblock:
		changed := false
		r.stores.Blocked.Update(ctx, func(v *relay.UIDSet) bool {
			changed = v.Remove(target)
			return changed
		})
		if !changed {
			return nil
		}
		relaymetrics.IncModeration(cb.Key)
		logger.Info(ctx, component, "user.unblocked", slog.Int64("target", int64(target)))
		return []relay.Action{relay.SendText(r.admin, relay.WithID(r.texts.UserUnblocked, target))}

	case relay.CallbackReply:
		return []relay.Action{relay.SendText(r.admin, r.texts.ReplyChosen, r.texts.ReplyChoice(target))}

	case relay.CallbackConfirmReply:
		r.stores.States.Update(ctx, func(m *relay.StateMap) bool {
			m.Set(r.admin, relay.AdminAwaitingReply(target))
			return true
		})
		logger.Debug(ctx, component, "reply.armed", slog.Int64("target", int64(target)))
		return []relay.Action{relay.SendText(r.admin, r.texts.ReplyPrompt)}

	case relay.CallbackCancelReply:
		if r.clearSlot(ctx) {
			relaymetrics.IncModeration(cb.Key)
		}
		return []relay.Action{relay.SendText(r.admin, r.texts.ReplyCancelled)}
	}

	logger.Warn(ctx, component, "callback.unknown", slog.String("cb", cb.String()))
	return nil
}
