package relay

import (
	"context"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	relaymetrics "github.com/m3rciful/relaybot/relay/metrics"
)

// Handler turns one event into the ordered actions it causes.
type Handler interface {
	Handle(ctx context.Context, ev Event) []Action
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) []Action

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) []Action { return f(ctx, ev) }

// Service routes events by author: the admin to the moderation router,
// everyone else to the conversation engine.
type Service struct {
	admin UID
	users Handler
	mod   Handler
}

// NewService wires the two handlers behind a single entry point.
func NewService(admin UID, users, moderation Handler) *Service {
	return &Service{admin: admin, users: users, mod: moderation}
}

// Admin returns the operator identity.
func (s *Service) Admin() UID { return s.admin }

// Handle processes ev. Callback events always get their acknowledgement first.
func (s *Service) Handle(ctx context.Context, ev Event) []Action {
	role := "user"
	h := s.users
	if ev.Author.ID == s.admin {
		role = "admin"
		h = s.mod
	}
	ctx = logger.WithRole(ctx, role)
	relaymetrics.IncEvent(role, ev.Kind.String())

	var out []Action
	if ev.Kind == PayloadCallback {
		out = append(out, AnswerCallback())
	}
	if h != nil {
		out = append(out, h.Handle(ctx, ev)...)
	}
	for _, a := range out {
		relaymetrics.IncAction(a.Kind.String())
	}

	logger.Debug(ctx, "relay", "event.handled",
		slog.String("kind", ev.Kind.String()),
		slog.Int64("user_id", int64(ev.Author.ID)),
		slog.Int("actions", len(out)),
	)
	return out
}
