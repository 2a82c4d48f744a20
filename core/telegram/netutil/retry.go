// Package netutil classifies Bot API transport failures.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a failed Bot API call may succeed if repeated:
// flood control, 5xx replies, timeouts and failures before the request left
// the host. Cancellation is never retried.
func ShouldRetry(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case NotSent(err):
		return true
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NotSent reports whether err was raised before any byte reached Telegram,
// so repeating the request cannot duplicate its effect.
func NotSent(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
