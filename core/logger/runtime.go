package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type metaKey struct{}

// Meta is the correlation data of one update, carried through a context.
// Zero fields are left out of log lines.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
	// Role is "user" or "admin" once the relay has classified the author.
	Role string

	log *slog.Logger
}

// MetaFrom returns the metadata stored in ctx.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey{}).(Meta)
	return m
}

// withMeta stores a modified copy of the current metadata; parents keep theirs.
func withMeta(ctx context.Context, edit func(*Meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := MetaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, metaKey{}, m)
}

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *Meta) { m.log = log })
}

// FromContext extracts slog.Logger from context or returns global default.
func FromContext(ctx context.Context) *slog.Logger {
	if l := MetaFrom(ctx).log; l != nil {
		return l
	}
	return L
}

// WithRID attaches request correlation id into context.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.RID = rid })
}

// WithUpdateMeta attaches common update identifiers to context.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler stores handler identifier in context for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return withMeta(ctx, func(*Meta) {})
	}
	return withMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// WithRole tags every following line with the author role.
func WithRole(ctx context.Context, role string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.Role = role })
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string { return MetaFrom(ctx).RID }

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	clean := true
	for _, r := range s {
		if dropRune(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s)
}

func dropRune(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// SanitizeLimit applies Sanitize and cuts the result to max runes, marking the
// cut with an ellipsis.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	cleaned := Sanitize(s)
	if utf8.RuneCountInString(cleaned) <= max {
		return cleaned
	}
	n := 0
	for i := range cleaned {
		if n == max-1 {
			return cleaned[:i] + "…"
		}
		n++
	}
	return cleaned
}

// BuildRID returns a correlation identifier in the format updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID shortens a BuildRID value into dot separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
