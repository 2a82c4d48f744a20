package telegram

import (
	"net"
	"net/http"
	"path"
	"time"

	coremetrics "github.com/m3rciful/relaybot/core/metrics"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
)

const (
	dialTimeout       = 5 * time.Second
	keepAlive         = 30 * time.Second
	tlsTimeout        = 5 * time.Second
	idleConnTimeout   = 90 * time.Second
	headerTimeout     = 10 * time.Second
	requestTimeout    = 30 * time.Second
	transportRetries  = 2
	transportBackoff  = 500 * time.Millisecond
	maxConnsPerServer = 16
)

// readOnlyMethods are safe to repeat after the request may have been
// delivered.
var readOnlyMethods = map[string]bool{
	"getMe":          true,
	"getUpdates":     true,
	"getChat":        true,
	"getFile":        true,
	"getMyCommands":  true,
	"getWebhookInfo": true,
}

// BuildHTTPClient returns the client used for Bot API calls. longPoll is the
// getUpdates wait; the header and overall timeouts are extended by it.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	longPoll = max(longPoll, 0)
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   maxConnsPerServer,
		MaxConnsPerHost:       maxConnsPerServer,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: headerTimeout + longPoll,
	}
	return &http.Client{
		Timeout: requestTimeout + longPoll,
		Transport: &apiTransport{
			base:    base,
			retries: transportRetries,
			backoff: transportBackoff,
		},
	}
}

// apiTransport records Bot API latency per method and repeats calls that
// failed in a way that cannot duplicate a message: read-only methods on any
// retryable error, other methods only when the request never left the host.
// Delivery level retries belong to the sender dispatcher.
type apiTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	method := apiMethod(req)
	start := time.Now()
	resp, err := t.roundTrip(req, method)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	coremetrics.ObserveAPIRequest(method, outcome, time.Since(start))
	return resp, err
}

func (t *apiTransport) roundTrip(req *http.Request, method string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		cur := req
		if attempt > 0 {
			var err error
			if cur, err = rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(cur)
		if err == nil || attempt >= t.retries || !t.repeatable(method, err) {
			return resp, err
		}
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}

		timer := time.NewTimer(t.backoff * time.Duration(attempt+1))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func (t *apiTransport) repeatable(method string, err error) bool {
	if netutil.NotSent(err) {
		return true
	}
	return readOnlyMethods[method] && netutil.ShouldRetry(err)
}

// rewind clones req with a fresh body for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	cur := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		cur.Body = body
	}
	return cur, nil
}

// apiMethod extracts the method from /bot<token>/<method>; the token is never
// returned.
func apiMethod(req *http.Request) string {
	if req.URL == nil {
		return "unknown"
	}
	if m := path.Base(req.URL.Path); m != "/" && m != "." && m != "" {
		return m
	}
	return "unknown"
}
