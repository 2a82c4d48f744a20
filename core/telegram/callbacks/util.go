package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits raw callback data in Telebot's \f<unique>|<payload>
// encoding. Data without the \f marker is returned whole as the key, which is
// how buttons created outside Telebot arrive.
func ParseCallbackData(data string) (string, string) {
	raw := strings.TrimPrefix(data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey returns cb.Unique if present; otherwise parses it from Data.
func CallbackKey(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := ParseCallbackData(cb.Data)
	return k
}

// CallbackPayload returns the payload part. Telebot already strips the unique
// prefix from Data when it recognises the encoding.
func CallbackPayload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	_, payload := ParseCallbackData(cb.Data)
	return payload
}
