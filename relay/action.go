package relay

// ActionKind enumerates outbound action variants.
type ActionKind int

const (
	ActionSendText ActionKind = iota + 1
	ActionSendPhoto
	ActionSendVideo
	ActionAnswerCallback
)

var actionNames = map[ActionKind]string{
	ActionSendText:       "send_text",
	ActionSendPhoto:      "send_photo",
	ActionSendVideo:      "send_video",
	ActionAnswerCallback: "answer_callback",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is an outbound instruction for the transport. Text doubles as the
// caption of photo and video sends.
type Action struct {
	Kind     ActionKind
	To       UID
	Text     string
	Media    string
	Keyboard *Keyboard
}

// SendText addresses a text message to uid.
func SendText(to UID, text string, kb ...*Keyboard) Action {
	a := Action{Kind: ActionSendText, To: to, Text: text}
	if len(kb) > 0 {
		a.Keyboard = kb[0]
	}
	return a
}

// SendPhoto addresses a photo with caption to uid.
func SendPhoto(to UID, ref, caption string) Action {
	return Action{Kind: ActionSendPhoto, To: to, Media: ref, Text: caption}
}

// SendVideo addresses a video with caption to uid.
func SendVideo(to UID, ref, caption string) Action {
	return Action{Kind: ActionSendVideo, To: to, Media: ref, Text: caption}
}

// AnswerCallback acknowledges the inline button press being handled.
func AnswerCallback() Action {
	return Action{Kind: ActionAnswerCallback}
}

// KeyboardKind selects how a keyboard is rendered.
type KeyboardKind int

const (
	// KeyboardReply is a persistent reply keyboard of text labels.
	KeyboardReply KeyboardKind = iota + 1
	// KeyboardInline is attached to the message and produces callbacks.
	KeyboardInline
)

// Button is a keyboard button. Reply buttons use Text only.
type Button struct {
	Text     string
	Callback Callback
}

// Keyboard is transport-neutral markup; rows are rendered top to bottom.
type Keyboard struct {
	Kind KeyboardKind
	Rows [][]Button
}

// ReplyKeyboard builds a reply keyboard from rows of labels.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	kb := &Keyboard{Kind: KeyboardReply}
	for _, row := range rows {
		btns := make([]Button, 0, len(row))
		for _, label := range row {
			btns = append(btns, Button{Text: label})
		}
		kb.Rows = append(kb.Rows, btns)
	}
	return kb
}

// InlineKeyboard builds an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]Button) *Keyboard {
	return &Keyboard{Kind: KeyboardInline, Rows: rows}
}
