package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// fields is one log line before encoding.
type fields map[string]any

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// add flattens a into f; group members get dotted keys.
func (f fields) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, member := range a.Value.Group() {
			f.add(key, member)
		}
		return
	}
	if a.Key == "" {
		return
	}
	if k, v, ok := fieldValue(key, a.Value); ok {
		f[k] = v
	}
}

func (f fields) setDefault(key string, v any, present bool) {
	if !present {
		return
	}
	if _, set := f[key]; !set {
		f[key] = v
	}
}

// str returns the value of a string field, "" for anything else.
func (f fields) str(key string) string {
	s, _ := f[key].(string)
	return s
}

// fieldValue converts a slog value to a JSON friendly one. Durations are
// logged as whole milliseconds under a key ending in _ms.
func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// durationKey appends the _ms unit suffix: duration becomes duration_ms.
func durationKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

// orderedKeys lists the keys of f in order first, the rest sorted.
func (f fields) orderedKeys(order []string) []string {
	keys := make([]string, 0, len(f))
	placed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := f[k]; ok && !placed[k] {
			keys = append(keys, k)
			placed[k] = true
		}
	}
	rest := make([]string, 0, len(f)-len(keys))
	for k := range f {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func (f fields) encode(order []string, isJSON bool) ([]byte, error) {
	var b bytes.Buffer
	keys := f.orderedKeys(order)
	if !isJSON {
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(kvValue(f[k]))
		}
		return b.Bytes(), nil
	}

	b.WriteByte('{')
	for i, k := range keys {
		val, err := json.Marshal(f[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %q: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// kvValue renders v for key=value output, quoting when it would not parse
// back as a single token.
func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		s = fmt.Sprint(x)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
