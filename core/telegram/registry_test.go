package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func nop(tele.Context) error { return nil }

func testRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/start", Command{Handler: nop, Description: "start"})
	_ = reg.RegisterCommand("/stats", Command{Handler: nop, Description: "stats", AdminOnly: true})
	_ = reg.RegisterCommand("/debug", Command{Handler: nop, Description: "debug", Hidden: true})
	_ = reg.RegisterCommand("nohash", Command{Handler: nop, Description: "skipped"})
	_ = reg.RegisterCommand("/empty", Command{Handler: nop})
	return reg
}

func TestListCommandsByAudience(t *testing.T) {
	reg := testRegistry()

	public := reg.ListCommands(false)
	if len(public) != 1 || public[0].Text != "start" {
		t.Fatalf("public menu = %+v", public)
	}
	admin := reg.ListCommands(true)
	if len(admin) != 2 || admin[0].Text != "start" || admin[1].Text != "stats" {
		t.Fatalf("admin menu = %+v", admin)
	}
}

func TestLookupCommand(t *testing.T) {
	reg := testRegistry()
	if key, cmd, ok := reg.LookupCommand("stats"); !ok || key != "/stats" || !cmd.AdminOnly {
		t.Fatalf("lookup stats = %q %+v %v", key, cmd, ok)
	}
	if _, _, ok := reg.LookupCommand("/nohash"); ok {
		t.Fatal("command without slash prefix should not be registered")
	}
	if _, _, ok := reg.LookupCommand("/empty"); ok {
		t.Fatal("command without description should not be registered")
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("block", nop); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.RegisterCallback("block", nop); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate register err = %v", err)
	}
	if err := reg.RegisterCallback("", nop); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("empty key err = %v", err)
	}
	if _, ok := reg.GetCallback("block"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "block" {
		t.Fatalf("callbacks = %v", got)
	}
}


func TestRegisterCommandErrors(t *testing.T) {
	reg := testRegistry()
	if err := reg.RegisterCommand("/start", Command{Handler: nop, Description: "again"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
	for _, name := range []string{"", "/", "plain"} {
		if err := reg.RegisterCommand(name, Command{Handler: nop, Description: "x"}); !errors.Is(err, ErrInvalidRegistration) {
			t.Fatalf("%q err = %v", name, err)
		}
	}
}

func TestFallbacks(t *testing.T) {
	reg := NewRegistry()
	if reg.CallbackNotFound() == nil {
		t.Fatal("default callback fallback missing")
	}
	reg.SetCallbackNotFound(nil)
	if reg.CallbackNotFound() == nil {
		t.Fatal("nil must keep the current fallback")
	}
	if reg.TextFallback() != nil {
		t.Fatal("text fallback must start unset")
	}
	reg.SetTextFallback(nop)
	if reg.TextFallback() == nil {
		t.Fatal("text fallback not stored")
	}
}

type menuRecorder struct {
	calls [][]interface{}
	err   error
}

func (m *menuRecorder) SetCommands(opts ...interface{}) error {
	m.calls = append(m.calls, opts)
	return m.err
}

func TestInitBotCommandsScopesAdminMenu(t *testing.T) {
	rec := &menuRecorder{}
	InitBotCommands(rec, testRegistry(), 42)

	if len(rec.calls) != 2 {
		t.Fatalf("SetCommands calls = %d, want 2", len(rec.calls))
	}
	public := rec.calls[0]
	if len(public) != 1 {
		t.Fatalf("public call args = %v", public)
	}
	if menu, ok := public[0].([]tele.Command); !ok || len(menu) != 1 || menu[0].Text != "start" {
		t.Fatalf("public menu = %#v", public[0])
	}

	admin := rec.calls[1]
	if len(admin) != 2 {
		t.Fatalf("admin call args = %v", admin)
	}
	if menu, ok := admin[0].([]tele.Command); !ok || len(menu) != 2 {
		t.Fatalf("admin menu = %#v", admin[0])
	}
	scope, ok := admin[1].(tele.CommandScope)
	if !ok || scope.Type != tele.CommandScopeChat || scope.ChatID != 42 {
		t.Fatalf("admin scope = %#v", admin[1])
	}
}

func TestInitBotCommandsWithoutAdmin(t *testing.T) {
	rec := &menuRecorder{err: errors.New("api down")}
	InitBotCommands(rec, testRegistry(), 0)
	if len(rec.calls) != 1 {
		t.Fatalf("SetCommands calls = %d, want 1", len(rec.calls))
	}
}
