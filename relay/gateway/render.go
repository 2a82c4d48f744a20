package gateway

import (
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

// Markup renders a relay keyboard as Telegram reply markup.
func Markup(kb *relay.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]keyboard.Button, len(kb.Rows))
	for i, row := range kb.Rows {
		for _, b := range row {
			rows[i] = append(rows[i], keyboard.Button{
				Text:   b.Text,
				Unique: b.Callback.Key,
				Data:   b.Callback.Payload,
			})
		}
	}
	switch kb.Kind {
	case relay.KeyboardReply:
		return keyboard.Reply(rows...)
	case relay.KeyboardInline:
		return keyboard.Inline(rows...)
	}
	return nil
}
