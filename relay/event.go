// Package relay holds the domain model of the submission relay: inbound events,
// outbound actions, persisted records and the service that routes events between
// the conversation engine and the moderation router.
package relay

import (
	"strconv"
	"strings"
)

// UID is a Telegram account identifier.
type UID int64

// String renders the identifier in decimal.
func (u UID) String() string {
	return strconv.FormatInt(int64(u), 10)
}

// ParseUID parses a decimal identifier.
func ParseUID(s string) (UID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return UID(n), nil
}

// Author identifies who produced an event.
type Author struct {
	ID          UID
	DisplayName string
	// Username is empty when the account has no public handle.
	Username string
}

// PayloadKind enumerates inbound payload variants.
type PayloadKind int

const (
	PayloadUnsupported PayloadKind = iota
	PayloadCommand
	PayloadText
	PayloadPhoto
	PayloadVideo
	PayloadCallback
)

var payloadNames = map[PayloadKind]string{
	PayloadUnsupported: "unsupported",
	PayloadCommand:     "command",
	PayloadText:        "text",
	PayloadPhoto:       "photo",
	PayloadVideo:       "video",
	PayloadCallback:    "callback",
}

func (k PayloadKind) String() string {
	if name, ok := payloadNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a single inbound update in transport-neutral form.
type Event struct {
	Author Author
	Kind   PayloadKind

	// Command holds the command name without the leading slash.
	Command string
	// Text holds message text or the caption of a media message.
	Text string
	// Media is the opaque platform reference of a photo or video.
	Media string
	// Callback holds the parsed inline button data.
	Callback Callback
}

// CommandEvent builds a command event.
func CommandEvent(a Author, name string) Event {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return Event{Author: a, Kind: PayloadCommand, Command: strings.ToLower(name)}
}

// TextEvent builds a plain text event.
func TextEvent(a Author, text string) Event {
	return Event{Author: a, Kind: PayloadText, Text: text}
}

// PhotoEvent builds a photo event.
func PhotoEvent(a Author, ref, caption string) Event {
	return Event{Author: a, Kind: PayloadPhoto, Media: ref, Text: caption}
}

// VideoEvent builds a video event.
func VideoEvent(a Author, ref, caption string) Event {
	return Event{Author: a, Kind: PayloadVideo, Media: ref, Text: caption}
}

// CallbackEvent builds an inline button event.
func CallbackEvent(a Author, cb Callback) Event {
	return Event{Author: a, Kind: PayloadCallback, Callback: cb}
}
