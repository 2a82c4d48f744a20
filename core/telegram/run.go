package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const (
	component = "tg"
	// stopTimeout bounds the OnStop hook once the poller has returned.
	stopTimeout = 10 * time.Second
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds Handler to Endpoint, which is passed to tele.Bot.Handle as is.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// DisableWebhookCleanup skips deleteWebhook before long polling starts.
	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to the lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, wires routes and blocks until ctx is cancelled
// or the poller stops on its own. Cancellation is not reported as an error.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	if _, polling := bot.Poller.(*tele.LongPoller); polling && !opts.DisableWebhookCleanup {
		removeWebhook(ctx, bot)
	}
	wire(bot, reg, opts)

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)

	if opts.OnStop != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := opts.OnStop(stopCtx, rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(cfg)
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(longPollWait(cfg)),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.String("bot", bot.Me.Username),
		slog.Duration("duration", time.Since(start)),
	}
	if wh, ok := poller.(*tele.Webhook); ok {
		attrs = append(attrs, slog.String("listen", wh.Listen), slog.String("public_url", wh.Endpoint.PublicURL))
	} else {
		attrs = append(attrs, slog.Duration("wait", longPollWait(cfg)))
	}
	logger.Info(ctx, component, "mode", attrs...)
	return bot, nil
}

func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(); err != nil {
		logger.Warn(ctx, component, "delete_webhook", slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, component, "delete_webhook", slog.String("status", "ok"))
}

func wire(bot *tele.Bot, reg *Registry, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	InitBotCommands(bot, reg, opts.Config.Telegram.AdminID)
}

// serve runs the poller until ctx is done or the poller exits.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

// logHandlerError replaces telebot's stdlib log output for errors returned
// by handlers.
func logHandlerError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, component, "handler.error",
		slog.String("err", err.Error()),
		slog.String("error_kind", tgsender.ClassifyError(err)),
	)
}
