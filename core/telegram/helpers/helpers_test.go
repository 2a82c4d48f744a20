package helpers

import (
	"testing"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	chat  *tele.Chat
	user  *tele.User
	store map[string]interface{}
}

func newStub(chatID, userID int64) *stubContext {
	s := &stubContext{store: map[string]interface{}{}}
	if chatID != 0 {
		s.chat = &tele.Chat{ID: chatID}
	}
	if userID != 0 {
		s.user = &tele.User{ID: userID}
	}
	return s
}

func (s *stubContext) Chat() *tele.Chat              { return s.chat }
func (s *stubContext) Sender() *tele.User            { return s.user }
func (s *stubContext) Update() tele.Update           { return tele.Update{ID: 9} }
func (s *stubContext) Get(key string) interface{}    { return s.store[key] }
func (s *stubContext) Set(key string, v interface{}) { s.store[key] = v }

func TestBuildContextIsCached(t *testing.T) {
	c := newStub(10, 20)
	first := BuildContext(c)
	if logger.RIDFrom(first) == "" {
		t.Fatal("rid not set")
	}
	if meta := logger.MetaFrom(first); meta.ChatID != 10 || meta.UserID != 20 || meta.UpdateID != 9 {
		t.Fatalf("meta = %+v", meta)
	}
	if second := BuildContext(c); second != first {
		t.Fatal("context rebuilt for the same update")
	}

	tagged := WithRole(c, "admin")
	if logger.MetaFrom(tagged).Role != "admin" || BuildContext(c) != tagged {
		t.Fatal("role annotation not stored")
	}
}

func TestOrderKey(t *testing.T) {
	if got := orderKey(newStub(10, 20)); got != 10 {
		t.Fatalf("key = %d", got)
	}
	if got := orderKey(newStub(0, 20)); got != 20 {
		t.Fatalf("key = %d", got)
	}
	if got := orderKey(newStub(0, 0)); got != 0 {
		t.Fatalf("key = %d", got)
	}
}

func TestDispatchInlineWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	ran := false
	if err := Dispatch(newStub(1, 1), "test", "sendMessage", func() error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("job did not run inline")
	}
}

func TestDispatchQueuesAndFallsBackWhenClosed(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 4})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	done := make(chan struct{})
	if err := Dispatch(newStub(1, 1), "test", "sendMessage", func() error { close(done); return nil }); err != nil {
		t.Fatal(err)
	}
	<-done

	d.Close()
	ran := false
	if err := Dispatch(newStub(1, 1), "test", "sendMessage", func() error { ran = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("closed dispatcher must fall back to inline")
	}
}
