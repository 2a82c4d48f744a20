// Package keyboard turns rows of buttons into Telegram reply markup.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one key. Reply keyboards use Text only; inline buttons are sent
// as \f<Unique>|<Data> callback data.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Reply builds a resized reply keyboard. Empty rows are skipped.
func Reply(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(layout(rows, func(b Button) tele.Btn { return markup.Text(b.Text) })...)
	return markup
}

// Inline builds an inline keyboard. Empty rows are skipped.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(layout(rows, func(b Button) tele.Btn { return markup.Data(b.Text, b.Unique, b.Data) })...)
	return markup
}

func layout(rows [][]Button, build func(Button) tele.Btn) []tele.Row {
	out := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		btns := make(tele.Row, 0, len(row))
		for _, b := range row {
			btns = append(btns, build(b))
		}
		out = append(out, btns)
	}
	return out
}
