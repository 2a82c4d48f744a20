package middleware

import (
	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures AdminOnlyMiddleware. A zero AdminID disables the
// check.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware passes only updates sent by the admin to next; the rest
// go to OnReject, or are dropped when it is nil.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID == 0 {
				return next(c)
			}
			if user := c.Sender(); user != nil && user.ID == opts.AdminID {
				return next(c)
			}
			logger.Debug(tghelpers.BuildContext(c), component, "admin.reject")
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
