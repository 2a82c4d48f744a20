package logger

import (
	"log/slog"
	"strings"
)

// levelName maps a slog level onto the four names the log schema allows.
func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// enumField restricts a field to a closed set of lowercase values. Unknown
// values are dropped when strict, kept lowercased otherwise.
type enumField struct {
	values map[string]struct{}
	strict bool
}

func enum(strict bool, values ...string) enumField {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return enumField{values: set, strict: strict}
}

var enumFields = map[string]enumField{
	"status":  enum(false, "ok", "fail", "skip", "retry", "rate_limited", "cancelled"),
	"outcome": enum(true, "ok", "fail", "cancelled", "rate_limited"),
	"role":    enum(true, "user", "admin"),
}

// normalize returns the canonical value and whether the field should stay.
func (e enumField) normalize(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	if _, ok := e.values[v]; ok || !e.strict {
		return v, true
	}
	return "", false
}

// freeTextLimits caps, in runes, fields that can carry user text.
var freeTextLimits = map[string]int{
	"payload":  256,
	"username": 64,
	"cb_key":   128,
	"err":      512,
}

// defaultKeyOrder puts the envelope first, then correlation ids, then the
// keys relay components emit most. Keys not listed follow alphabetically.
var defaultKeyOrder = strings.Fields(`
	ts level component event status
	rid rid_full ts_unix_nano update_id user_id chat_id chat_type role handler
	operation op cb_key kind outcome duration_ms messages kb
	actions items target to store driver count
	payload lang username
	mode listen addr public_url http_code db host port path
	action endpoint
	err err_code error_kind cause retryable attempts backoff_ms
	rate_limited collapsed repeats
`)
