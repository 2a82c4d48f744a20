package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// ClassifyError maps a Bot API failure to a low-cardinality label for metrics
// and the error_kind log key.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, tele.ErrBlockedByUser), errors.Is(err, tele.ErrUserIsDeactivated):
		return "recipient_gone"
	case errors.Is(err, tele.ErrChatNotFound):
		return "chat_not_found"
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return "flood"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code >= http.StatusInternalServerError:
			return "http_5xx"
		case apiErr.Code >= http.StatusBadRequest:
			return "http_4xx"
		}
	}
	return "unknown"
}

// sanitizeErrorMessage keeps bot tokens embedded in request URLs out of logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
