package logger

import (
	"log/slog"
	"strings"
	"time"
)

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// ListAttrs describes a string list as <prefix>_total, <prefix>_preview with
// at most limit items, and <prefix>_truncated when items were left out.
func ListAttrs(prefix string, values []string, limit int) []slog.Attr {
	attrs := []slog.Attr{slog.Int(prefix+"_total", len(values))}
	if len(values) == 0 {
		return attrs
	}
	shown := values
	if limit >= 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	if len(shown) > 0 {
		attrs = append(attrs, slog.String(prefix+"_preview", strings.Join(shown, ", ")))
	}
	if len(shown) < len(values) {
		attrs = append(attrs, slog.Bool(prefix+"_truncated", true))
	}
	return attrs
}
