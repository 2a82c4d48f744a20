package logger

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler writes every record as one flat line: dotted keys for
// groups, envelope keys first, context metadata filled in when absent.
type structuredHandler struct {
	cfg    handlerConfig
	preset fields
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	isJSON := h.cfg.format == formatJSON

	f := make(fields, len(h.preset)+r.NumAttrs()+8)
	maps.Copy(f, h.preset)
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	f.fromContext(ctx)
	f.envelope(r.Time, r.Level, r.Message, isJSON)
	f.normalize()

	line, err := f.encode(h.cfg.keyOrder, isJSON)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

// WithAttrs resolves attrs under the current group prefix right away.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = maps.Clone(h.preset)
	if clone.preset == nil {
		clone.preset = make(fields, len(attrs))
	}
	for _, a := range attrs {
		clone.preset.add(h.prefix, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// envelope sets ts, level, event and component and compacts the rid.
func (f fields) envelope(t time.Time, level slog.Level, msg string, isJSON bool) {
	ts := t.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	if isJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}
	f["level"] = levelName(level)

	if f.str("event") == "" {
		f["event"] = "unknown"
		if msg != "" {
			f["event"] = msg
		}
	}
	if f.str("component") == "" {
		f["component"] = "app"
	}

	if rid := f.str("rid"); rid != "" {
		if short := CompactRID(rid); short != "" && short != rid {
			if _, set := f["rid_full"]; isJSON && !set {
				f["rid_full"] = rid
			}
			f["rid"] = short
		}
	}
}

// fromContext copies request metadata from ctx into keys not already set.
func (f fields) fromContext(ctx context.Context) {
	m := MetaFrom(ctx)
	f.setDefault("rid", m.RID, m.RID != "")
	f.setDefault("update_id", m.UpdateID, m.UpdateID != 0)
	f.setDefault("user_id", m.UserID, m.UserID != 0)
	f.setDefault("chat_id", m.ChatID, m.ChatID != 0)
	f.setDefault("handler", m.Handler, m.Handler != "")
	f.setDefault("role", m.Role, m.Role != "")
}

// normalize enforces enum fields, caps free text and drops empty values.
func (f fields) normalize() {
	for key, e := range enumFields {
		s, ok := f[key].(string)
		if !ok {
			continue
		}
		if v, keep := e.normalize(s); keep {
			f[key] = v
		} else {
			delete(f, key)
		}
	}
	for key, limit := range freeTextLimits {
		if s, ok := f[key].(string); ok {
			f[key] = SanitizeLimit(s, limit)
		}
	}
	for k, v := range f {
		if v == nil || v == "" {
			delete(f, k)
		}
	}
}
