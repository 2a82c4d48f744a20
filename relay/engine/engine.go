// Package engine implements the per-user conversation: gating, proposal
// collection and free-form messages. It decides over the shared stores and
// returns actions; it never talks to the transport.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay"
	relaymetrics "github.com/m3rciful/relaybot/relay/metrics"
	"github.com/m3rciful/relaybot/relay/store"
)

const component = "relay.engine"

// Options tunes engine policy.
type Options struct {
	// MaxItems caps the items of one proposal; 0 means unlimited.
	MaxItems int
}

// Engine handles events from non-admin users.
type Engine struct {
	stores *store.Stores
	admin  relay.UID
	texts  relay.Texts
	opts   Options
}

// New builds an engine over stores. texts must be a complete catalog.
func New(stores *store.Stores, admin relay.UID, texts relay.Texts, opts Options) *Engine {
	return &Engine{stores: stores, admin: admin, texts: texts, opts: opts}
}

type intent int

const (
	intentUnsupported intent = iota
	intentStart
	intentCancel
	intentPropose
	intentSubmit
	intentMessage
	intentText
	intentPhoto
	intentVideo
)

func (e *Engine) classify(ev relay.Event) intent {
	switch ev.Kind {
	case relay.PayloadCommand:
		switch ev.Command {
		case "start":
			return intentStart
		case "cancel":
			return intentCancel
		}
		return intentUnsupported
	case relay.PayloadText:
		switch strings.TrimSpace(ev.Text) {
		case e.texts.ProposeButton:
			return intentPropose
		case e.texts.SubmitButton:
			return intentSubmit
		case e.texts.CancelButton:
			return intentCancel
		case e.texts.MessageButton:
			return intentMessage
		}
		return intentText
	case relay.PayloadPhoto:
		return intentPhoto
	case relay.PayloadVideo:
		return intentVideo
	}
	return intentUnsupported
}

type outcome int

const (
	outFallback outcome = iota
	outWelcome
	outHidden
	outRateLimited
	outProposalStarted
	outSubmitted
	outCancelled
	outMessageDropped
	outItemSaved
	outProposalFull
	outMessagePrompt
	outMessageDelivered
)

// step is the result of one transition: what happened and the record to store.
type step struct {
	out    outcome
	next   relay.StateRecord
	change bool
	item   relay.ProposalItem
	items  []relay.ProposalItem
}

func (e *Engine) decide(rec relay.StateRecord, in intent, ev relay.Event, visible, limited bool) step {
	switch in {
	case intentStart:
		return step{out: outWelcome}
	case intentPropose:
		if !visible {
			return step{out: outHidden}
		}
		if limited {
			return step{out: outRateLimited}
		}
		return step{out: outProposalStarted, next: relay.CollectingProposal(), change: true}
	}

	switch rec.Kind {
	case relay.StateCollectingProposal:
		switch in {
		case intentSubmit:
			return step{out: outSubmitted, next: relay.Idle(), change: true, items: rec.Items}
		case intentCancel:
			return step{out: outCancelled, next: relay.Idle(), change: true}
		case intentText, intentMessage, intentPhoto, intentVideo:
			if e.opts.MaxItems > 0 && len(rec.Items) >= e.opts.MaxItems {
				return step{out: outProposalFull}
			}
			item := itemOf(in, ev)
			items := append(append([]relay.ProposalItem{}, rec.Items...), item)
			return step{out: outItemSaved, next: relay.CollectingProposal(items...), change: true, item: item}
		}
	case relay.StateAwaitingFreeMessage:
		switch in {
		case intentCancel:
			return step{out: outMessageDropped, next: relay.Idle(), change: true}
		case intentMessage:
			return step{out: outMessagePrompt}
		case intentText, intentSubmit:
			return step{out: outMessageDelivered, next: relay.Idle(), change: true}
		}
	default:
		if in == intentMessage {
			return step{out: outMessagePrompt, next: relay.AwaitingFreeMessage(), change: true}
		}
	}
	return step{out: outFallback}
}

func itemOf(in intent, ev relay.Event) relay.ProposalItem {
	switch in {
	case intentPhoto:
		return relay.ProposalItem{Kind: relay.ItemPhoto, Content: ev.Media}
	case intentVideo:
		return relay.ProposalItem{Kind: relay.ItemVideo, Content: ev.Media}
	}
	return relay.ProposalItem{Kind: relay.ItemText, Content: ev.Text}
}

// Handle implements relay.Handler.
func (e *Engine) Handle(ctx context.Context, ev relay.Event) []relay.Action {
	uid := ev.Author.ID
	if ev.Kind == relay.PayloadCallback {
		// inline buttons are operator tools; a user press only gets acknowledged
		logger.Debug(ctx, component, "callback.ignored",
			slog.Int64("user_id", int64(uid)),
			slog.String("cb", ev.Callback.String()),
		)
		return nil
	}

	if e.stores.Blocked.Load(ctx).Contains(uid) {
		relaymetrics.IncGated("blocked")
		return []relay.Action{relay.SendText(uid, e.texts.Blocked)}
	}

	var out []relay.Action
	if uid != e.admin {
		isNew := false
		e.stores.Users.Update(ctx, func(v *relay.UIDSet) bool {
			isNew = v.Add(uid)
			return isNew
		})
		if isNew {
			relaymetrics.IncUserRegistered()
			logger.Info(ctx, component, "user.registered", slog.Int64("user_id", int64(uid)))
			out = append(out, relay.SendText(e.admin, e.texts.NewUserNotice(ev.Author)))
		}
	}

	in := e.classify(ev)
	visible := e.stores.Settings.Load(ctx).ProposalVisible

	// The limit set is read and extended only while the state store is held;
	// a submitter joins it before the cleared state is saved.
	var (
		st   step
		prev relay.StateKind
	)
	e.stores.States.Update(ctx, func(m *relay.StateMap) bool {
		limited := false
		if in == intentPropose {
			limited = e.stores.Limited.Load(ctx).Contains(uid)
		}
		rec := m.Get(uid)
		prev = rec.Kind
		st = e.decide(rec, in, ev, visible, limited)
		if !st.change {
			return false
		}
		if st.out == outSubmitted {
			e.stores.Limited.Update(ctx, func(v *relay.UIDSet) bool { return v.Add(uid) })
		}
		m.Set(uid, st.next)
		return true
	})

	if st.change {
		logger.Debug(ctx, component, "state.transition",
			slog.Int64("user_id", int64(uid)),
			slog.String("from", prev.String()),
			slog.String("to", st.next.Kind.String()),
		)
	}
	return append(out, e.render(ctx, ev, st, visible)...)
}

func (e *Engine) render(ctx context.Context, ev relay.Event, st step, visible bool) []relay.Action {
	uid := ev.Author.ID
	t := &e.texts

	switch st.out {
	case outWelcome:
		return []relay.Action{relay.SendText(uid, t.Welcome, t.UserMenu(visible))}
	case outHidden:
		relaymetrics.IncGated("proposals_hidden")
		return []relay.Action{relay.SendText(uid, t.ProposalsHidden)}
	case outRateLimited:
		relaymetrics.IncGated("rate_limited")
		return []relay.Action{relay.SendText(uid, t.LimitReached)}
	case outProposalStarted:
		return []relay.Action{relay.SendText(uid, t.Instructions, t.ProposalMenu())}
	case outSubmitted:
		return e.submit(ctx, ev.Author, st.items, visible)
	case outCancelled:
		return []relay.Action{relay.SendText(uid, t.Cancelled, t.UserMenu(visible))}
	case outMessageDropped:
		return []relay.Action{relay.SendText(uid, t.MessageDropped, t.UserMenu(visible))}
	case outItemSaved:
		ack := t.TextSaved
		switch st.item.Kind {
		case relay.ItemPhoto:
			ack = t.PhotoSaved
		case relay.ItemVideo:
			ack = t.VideoSaved
		}
		return []relay.Action{relay.SendText(uid, ack)}
	case outProposalFull:
		return []relay.Action{relay.SendText(uid, t.ProposalFull)}
	case outMessagePrompt:
		return []relay.Action{relay.SendText(uid, t.MessagePrompt)}
	case outMessageDelivered:
		logger.Info(ctx, component, "message.relayed",
			slog.Int64("user_id", int64(uid)),
			slog.Int("len", len(ev.Text)),
		)
		return []relay.Action{
			relay.SendText(e.admin, t.FreeMessage(ev.Author, ev.Text), t.MessageButtons(uid)),
			relay.SendText(uid, t.MessageSent),
		}
	}
	return []relay.Action{relay.SendText(uid, t.UserFallback)}
}

func (e *Engine) submit(ctx context.Context, a relay.Author, items []relay.ProposalItem, visible bool) []relay.Action {
	t := &e.texts
	out := make([]relay.Action, 0, len(items)+1)
	for _, it := range items {
		switch it.Kind {
		case relay.ItemPhoto:
			out = append(out, relay.SendPhoto(e.admin, it.Content, t.ProposalCaption(a, it.Kind)))
		case relay.ItemVideo:
			out = append(out, relay.SendVideo(e.admin, it.Content, t.ProposalCaption(a, it.Kind)))
		default:
			out = append(out, relay.SendText(e.admin, t.ProposalText(a, it.Content)))
		}
		relaymetrics.IncProposalItem(string(it.Kind))
	}

	relaymetrics.IncProposalSubmitted()
	logger.Info(ctx, component, "proposal.submitted",
		slog.Int64("user_id", int64(a.ID)),
		slog.Int("items", len(items)),
	)
	return append(out, relay.SendText(a.ID, t.Submitted, t.UserMenu(visible)))
}
