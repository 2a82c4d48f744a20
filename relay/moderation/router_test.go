package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/m3rciful/relaybot/relay"
	"github.com/m3rciful/relaybot/relay/store"
)

const admin relay.UID = 1

func newTestRouter(t *testing.T) (*Router, *store.Stores) {
	t.Helper()
	s := store.NewStores(store.NewMemory())
	return New(s, admin, relay.DefaultTexts()), s
}

var adminAuthor = relay.Author{ID: admin, DisplayName: "Admin"}

func press(key string, uid relay.UID) relay.Event {
	return relay.CallbackEvent(adminAuthor, relay.TargetCallback(key, uid))
}

func TestBlockUnblockRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	s.Blocked.Update(ctx, func(v *relay.UIDSet) bool { return v.Add(7) })
	before := s.Blocked.Load(ctx)

	out := r.Handle(ctx, press(relay.CallbackBlock, 42))
	if len(out) != 1 || out[0].Text != "🚫 42 bloklandi!" {
		t.Fatalf("block out = %+v", out)
	}
	if again := r.Handle(ctx, press(relay.CallbackBlock, 42)); len(again) != 0 {
		t.Fatalf("repeated block must be silent, got %+v", again)
	}

	out = r.Handle(ctx, press(relay.CallbackUnblock, 42))
	if len(out) != 1 || out[0].Text != "♻️ 42 blokdan ochildi!" {
		t.Fatalf("unblock out = %+v", out)
	}
	if again := r.Handle(ctx, press(relay.CallbackUnblock, 42)); len(again) != 0 {
		t.Fatalf("repeated unblock must be silent, got %+v", again)
	}

	after := s.Blocked.Load(ctx)
	if after.Len() != before.Len() || !after.Contains(7) || after.Contains(42) {
		t.Fatalf("blocked = %v, want %v", after, before)
	}
}

func TestToggleTwiceIsIdentity(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	texts := relay.DefaultTexts()

	first := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminToggle))
	if first[0].Text != texts.ToggleHidden || s.Settings.Load(ctx).ProposalVisible {
		t.Fatalf("first toggle = %+v", first)
	}
	second := r.Handle(ctx, relay.CommandEvent(adminAuthor, "/toggle"))
	if second[0].Text != texts.ToggleVisible || !s.Settings.Load(ctx).ProposalVisible {
		t.Fatalf("second toggle = %+v", second)
	}
}

func TestReplySlotConsumedOnce(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	texts := relay.DefaultTexts()

	choice := r.Handle(ctx, press(relay.CallbackReply, 300))
	if len(choice) != 1 || choice[0].Keyboard == nil || choice[0].Keyboard.Rows[0][0].Callback.Key != relay.CallbackConfirmReply {
		t.Fatalf("reply choice = %+v", choice)
	}
	if !s.States.Load(ctx).Get(admin).IsIdle() {
		t.Fatal("reply alone must not arm the slot")
	}

	r.Handle(ctx, press(relay.CallbackConfirmReply, 300))
	if rec := s.States.Load(ctx).Get(admin); rec.Kind != relay.StateAdminAwaitingReply || rec.Target != 300 {
		t.Fatalf("slot = %+v", rec)
	}

	// a menu label is delivered verbatim while the slot is armed
	out := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminStats))
	if len(out) != 2 || out[0].To != 300 || out[0].Text != "💬 Admin xabari:\n\n"+texts.AdminStats {
		t.Fatalf("reply out = %+v", out)
	}
	if out[1].To != admin || out[1].Text != texts.ReplySent {
		t.Fatalf("confirmation = %+v", out[1])
	}

	next := r.Handle(ctx, relay.TextEvent(adminAuthor, "second"))
	if len(next) != 1 || next[0].Text != texts.AdminFallback {
		t.Fatalf("second message = %+v", next)
	}
}

func TestReplyWithPhoto(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRouter(t)

	r.Handle(ctx, press(relay.CallbackConfirmReply, 301))
	out := r.Handle(ctx, relay.PhotoEvent(adminAuthor, "PH", "look"))

	if len(out) != 2 || out[0].Kind != relay.ActionSendPhoto || out[0].To != 301 || out[0].Media != "PH" {
		t.Fatalf("out = %+v", out)
	}
	if !strings.HasSuffix(out[0].Text, "look") {
		t.Fatalf("caption = %q", out[0].Text)
	}
}

func TestCancelReply(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	texts := relay.DefaultTexts()

	r.Handle(ctx, press(relay.CallbackConfirmReply, 302))
	out := r.Handle(ctx, press(relay.CallbackCancelReply, 302))
	if len(out) != 1 || out[0].Text != texts.ReplyCancelled {
		t.Fatalf("out = %+v", out)
	}
	if !s.States.Load(ctx).Get(admin).IsIdle() {
		t.Fatal("slot should be cleared")
	}

	r.Handle(ctx, press(relay.CallbackConfirmReply, 302))
	out = r.Handle(ctx, relay.CommandEvent(adminAuthor, "/cancel"))
	if len(out) != 1 || out[0].Text != texts.ReplyCancelled {
		t.Fatalf("/cancel out = %+v", out)
	}
	if out := r.Handle(ctx, relay.CommandEvent(adminAuthor, "/cancel")); out[0].Text != texts.AdminFallback {
		t.Fatalf("/cancel without slot = %+v", out)
	}
}

func TestClearLimit(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	texts := relay.DefaultTexts()
	s.Limited.Update(ctx, func(v *relay.UIDSet) bool { return v.Add(1) && v.Add(2) })

	list := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminLimitedList))
	if list[0].Text != "📋 Limiti tugaganlar: [1, 2]" || list[0].Keyboard == nil {
		t.Fatalf("list = %+v", list)
	}

	out := r.Handle(ctx, relay.CallbackEvent(adminAuthor, relay.ParseCallback("clear_limit", "")))
	if len(out) != 1 || out[0].Text != texts.LimitsCleared {
		t.Fatalf("out = %+v", out)
	}
	if s.Limited.Load(ctx).Len() != 0 {
		t.Fatal("limited set should be empty")
	}
	if empty := r.Handle(ctx, relay.CommandEvent(adminAuthor, "limited")); empty[0].Text != texts.NobodyLimited {
		t.Fatalf("empty list = %+v", empty)
	}
}

func TestListsAndStats(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)
	texts := relay.DefaultTexts()

	if out := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminBlockedList)); out[0].Text != texts.NobodyBlocked {
		t.Fatalf("empty blocked = %+v", out)
	}

	s.Blocked.Update(ctx, func(v *relay.UIDSet) bool { return v.Add(10) && v.Add(11) })
	out := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminBlockedList))
	if out[0].Text != "🚫 Bloklanganlar:\n\n10\n11" {
		t.Fatalf("blocked text = %q", out[0].Text)
	}
	kb := out[0].Keyboard
	if kb == nil || len(kb.Rows) != 2 || kb.Rows[1][0].Text != "♻️ Blokdan ochish 11" ||
		kb.Rows[1][0].Callback != relay.TargetCallback(relay.CallbackUnblock, 11) {
		t.Fatalf("unblock keyboard = %+v", kb)
	}

	s.Users.Update(ctx, func(v *relay.UIDSet) bool { return v.Add(5) && v.Add(6) && v.Add(7) })
	if out := r.Handle(ctx, relay.TextEvent(adminAuthor, texts.AdminStats)); out[0].Text != "📊 Foydalanuvchilar soni: 3" {
		t.Fatalf("stats = %+v", out)
	}
}

func TestLegacyAndInvalidCallbacks(t *testing.T) {
	ctx := context.Background()
	r, s := newTestRouter(t)

	out := r.Handle(ctx, relay.CallbackEvent(adminAuthor, relay.ParseCallback("block_55", "")))
	if len(out) != 1 || !s.Blocked.Load(ctx).Contains(55) {
		t.Fatalf("legacy block = %+v", out)
	}

	if out := r.Handle(ctx, relay.CallbackEvent(adminAuthor, relay.Callback{Key: relay.CallbackBlock, Payload: "abc"})); len(out) != 0 {
		t.Fatalf("invalid target = %+v", out)
	}
	if out := r.Handle(ctx, relay.CallbackEvent(adminAuthor, relay.Callback{Key: "nope", Payload: "1"})); len(out) != 0 {
		t.Fatalf("unknown key = %+v", out)
	}
}

func TestAdminStartAndFallback(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRouter(t)
	texts := relay.DefaultTexts()

	out := r.Handle(ctx, relay.CommandEvent(adminAuthor, "start"))
	if out[0].Text != texts.AdminWelcome || out[0].Keyboard == nil || len(out[0].Keyboard.Rows) != 4 {
		t.Fatalf("start = %+v", out)
	}
	if out := r.Handle(ctx, relay.TextEvent(adminAuthor, "what")); out[0].Text != texts.AdminFallback {
		t.Fatalf("fallback = %+v", out)
	}
	if out := r.Handle(ctx, relay.Event{Author: adminAuthor, Kind: relay.PayloadUnsupported}); out[0].Text != texts.AdminFallback {
		t.Fatalf("unsupported = %+v", out)
	}
}
