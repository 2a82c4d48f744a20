package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

// delivery sends the actions of one event in order. A retryable failure stops
// the run and the next run resumes at the failed action; any other failure
// drops that action and moves on.
type delivery struct {
	ctx     context.Context
	to      Sender
	pending []relay.Action
}

func newDelivery(ctx context.Context, to Sender, actions []relay.Action) *delivery {
	if ctx == nil {
		ctx = context.Background()
	}
	return &delivery{ctx: ctx, to: to, pending: actions}
}

func (d *delivery) run() error {
	for len(d.pending) > 0 {
		a := d.pending[0]
		if err := send(d.to, a); err != nil {
			err = fmt.Errorf("deliver %s to %d: %w", a.Kind, a.To, err)
			if netutil.ShouldRetry(err) {
				return err
			}
			coremetrics.IncSendFailure("relay.deliver", "permanent")
			logger.Warn(d.ctx, component, "deliver.drop",
				slog.String("kind", a.Kind.String()),
				slog.Int64("to", int64(a.To)),
				slog.String("err", err.Error()),
			)
		} else {
			coremetrics.IncMessageSent(a.Keyboard != nil)
		}
		d.pending = d.pending[1:]
	}
	return nil
}

func send(to Sender, a relay.Action) error {
	var what interface{}
	switch a.Kind {
	case relay.ActionSendText:
		what = a.Text
	case relay.ActionSendPhoto:
		what = &tele.Photo{File: tele.File{FileID: a.Media}, Caption: a.Text}
	case relay.ActionSendVideo:
		what = &tele.Video{File: tele.File{FileID: a.Media}, Caption: a.Text}
	default:
		return fmt.Errorf("unsupported action %s", a.Kind)
	}
	opts := &tele.SendOptions{}
	if a.Keyboard != nil {
		opts.ReplyMarkup = Markup(a.Keyboard)
	}
	_, err := to.Send(tele.ChatID(a.To), what, opts)
	return err
}
