package relay

import "testing"

func TestIdentityFormats(t *testing.T) {
	tx := DefaultTexts()
	a := Author{ID: 7, DisplayName: "Ali Valiyev", Username: "ali"}

	if got, want := tx.NewUserNotice(a), "🆕 Yangi foydalanuvchi:\n\n👤 Ali Valiyev\n🆔 7\n🔗 @ali"; got != want {
		t.Errorf("NewUserNotice = %q, want %q", got, want)
	}
	if got, want := tx.ProposalText(a, "Naruto"), "📩 Taklif (text):\n\n👤 Ali Valiyev\n🆔 7\n🔗 @ali\n\nNaruto"; got != want {
		t.Errorf("ProposalText = %q, want %q", got, want)
	}
	a.Username = ""
	if got, want := tx.ProposalCaption(a, ItemVideo), "📩 Taklif (video) 👤 Ali Valiyev 🆔 7 🔗 ❌ username yo‘q"; got != want {
		t.Errorf("ProposalCaption = %q, want %q", got, want)
	}
	if got, want := tx.FreeMessage(a, "salom"), "📩 Yangi xabar:\n\n👤 Ali Valiyev\n🆔 7\n🔗 ❌ username yo‘q\n\n💬 salom"; got != want {
		t.Errorf("FreeMessage = %q, want %q", got, want)
	}
}

func TestUserMenuVisibility(t *testing.T) {
	tx := DefaultTexts()
	if kb := tx.UserMenu(true); len(kb.Rows[0]) != 2 || kb.Rows[0][1].Text != tx.ProposeButton {
		t.Fatalf("visible menu = %+v", kb)
	}
	if kb := tx.UserMenu(false); len(kb.Rows[0]) != 1 {
		t.Fatalf("hidden menu = %+v", kb)
	}
}

func TestCommandEventNormalizes(t *testing.T) {
	ev := CommandEvent(Author{ID: 1}, "/Start@relay_bot")
	if ev.Command != "start" || ev.Kind != PayloadCommand {
		t.Fatalf("ev = %+v", ev)
	}
}
