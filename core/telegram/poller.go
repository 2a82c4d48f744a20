package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/relaybot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPoll = 10 * time.Second

// allowedUpdates are the update types the bot consumes; Telegram does not
// deliver the rest.
var allowedUpdates = []string{"message", "callback_query"}

// BuildPoller returns the poller matching the configured run mode.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{
		Timeout:        longPollWait(cfg),
		AllowedUpdates: allowedUpdates,
	}
}

// longPollWait is how long one getUpdates call may hang; 0 in webhook mode.
func longPollWait(cfg *coreconfig.Config) time.Duration {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return 0
	}
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	}
	return defaultLongPoll
}
