package relay

import (
	"errors"
	"fmt"
	"strings"
)

// Inline button keys understood by the moderation router.
const (
	CallbackBlock        = "block"
	CallbackUnblock      = "unblock"
	CallbackReply        = "reply"
	CallbackConfirmReply = "confirm_reply"
	CallbackCancelReply  = "cancel_reply"
	CallbackClearLimit   = "clear_limit"
)

// CallbackKeys lists every key the router handles.
var CallbackKeys = []string{
	CallbackBlock,
	CallbackUnblock,
	CallbackReply,
	CallbackConfirmReply,
	CallbackCancelReply,
	CallbackClearLimit,
}

// ErrBadCallback reports callback data whose target is not a valid identity.
var ErrBadCallback = errors.New("relay: malformed callback payload")

// Callback is inline button data split into a routing key and a payload.
type Callback struct {
	Key     string
	Payload string
}

// String renders the callback in key|payload form.
func (c Callback) String() string {
	if c.Payload == "" {
		return c.Key
	}
	return c.Key + "|" + c.Payload
}

// Target parses the payload as the identity the action applies to.
func (c Callback) Target() (UID, error) {
	uid, err := ParseUID(c.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadCallback, c.String(), err)
	}
	return uid, nil
}

// TargetCallback builds a callback carrying uid as payload.
func TargetCallback(key string, uid UID) Callback {
	return Callback{Key: key, Payload: uid.String()}
}

// ParseCallback normalizes callback data. Besides key|payload it accepts the
// underscore form written by earlier versions of the bot, e.g. "confirm_reply_42".
func ParseCallback(key, payload string) Callback {
	key = strings.TrimSpace(key)
	payload = strings.TrimSpace(payload)
	if payload != "" {
		return Callback{Key: key, Payload: payload}
	}
	if k, p, ok := strings.Cut(key, "|"); ok {
		return Callback{Key: strings.TrimSpace(k), Payload: strings.TrimSpace(p)}
	}
	i := strings.LastIndexByte(key, '_')
	if i <= 0 || i == len(key)-1 {
		return Callback{Key: key}
	}
	if _, err := ParseUID(key[i+1:]); err != nil {
		return Callback{Key: key}
	}
	return Callback{Key: key[:i], Payload: key[i+1:]}
}
