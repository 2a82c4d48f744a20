package relay

import (
	"context"
	"testing"
)

func TestServiceRoutesByAuthor(t *testing.T) {
	var users, admins int
	svc := NewService(1,
		HandlerFunc(func(_ context.Context, ev Event) []Action {
			users++
			return []Action{SendText(ev.Author.ID, "user")}
		}),
		HandlerFunc(func(_ context.Context, ev Event) []Action {
			admins++
			return []Action{SendText(ev.Author.ID, "admin")}
		}),
	)
	ctx := context.Background()

	out := svc.Handle(ctx, TextEvent(Author{ID: 2}, "hi"))
	if len(out) != 1 || out[0].Text != "user" {
		t.Fatalf("user out = %+v", out)
	}
	out = svc.Handle(ctx, TextEvent(Author{ID: 1}, "hi"))
	if len(out) != 1 || out[0].Text != "admin" {
		t.Fatalf("admin out = %+v", out)
	}
	if users != 1 || admins != 1 {
		t.Fatalf("users=%d admins=%d", users, admins)
	}
}

func TestServiceAcknowledgesCallbacks(t *testing.T) {
	svc := NewService(1,
		HandlerFunc(func(context.Context, Event) []Action { return nil }),
		HandlerFunc(func(_ context.Context, ev Event) []Action { return []Action{SendText(1, "done")} }),
	)
	ctx := context.Background()

	out := svc.Handle(ctx, CallbackEvent(Author{ID: 5}, TargetCallback(CallbackBlock, 5)))
	if len(out) != 1 || out[0].Kind != ActionAnswerCallback {
		t.Fatalf("user callback = %+v", out)
	}
	out = svc.Handle(ctx, CallbackEvent(Author{ID: 1}, TargetCallback(CallbackBlock, 5)))
	if len(out) != 2 || out[0].Kind != ActionAnswerCallback || out[1].Text != "done" {
		t.Fatalf("admin callback = %+v", out)
	}
}
