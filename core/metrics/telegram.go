package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	Register(
		updatesReceivedTotal,
		rateLimitTriggeredTotal,
		panicsRecoveredTotal,
		messagesSentTotal,
		sendFailuresTotal,
		apiRequestDuration,
		updateDuration,
		buildInfo,
	)
}

var (
	updatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Incoming Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	rateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Updates dropped by the flood throttle.",
		},
	)

	panicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_panics_recovered_total",
			Help: "Handler panics caught by the recover middleware.",
		},
	)

	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Messages sent from handlers, split by keyboard presence.",
		},
		[]string{"keyboard"},
	)

	sendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_failures_total",
			Help: "Dispatcher jobs that failed after retries.",
		},
		[]string{"action", "error_kind"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_api_request_duration_seconds",
			Help:    "Bot API round trips by method and outcome, retries included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "outcome"},
	)

	updateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_update_duration_seconds",
			Help:    "Time spent handling one update, by kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relaybot_build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)
)

func IncUpdate(kind string) {
	updatesReceivedTotal.WithLabelValues(Norm(kind)).Inc()
}

func IncRateLimitTriggered() {
	rateLimitTriggeredTotal.Inc()
}

func IncPanicRecovered() {
	panicsRecoveredTotal.Inc()
}

func IncMessageSent(keyboard bool) {
	label := "false"
	if keyboard {
		label = "true"
	}
	messagesSentTotal.WithLabelValues(label).Inc()
}

func IncSendFailure(action, kind string) {
	sendFailuresTotal.WithLabelValues(Norm(action), Norm(kind)).Inc()
}

// ObserveAPIRequest records one Bot API call; outcome is "ok" or "error".
func ObserveAPIRequest(method, outcome string, d time.Duration) {
	apiRequestDuration.WithLabelValues(method, outcome).Observe(d.Seconds())
}

func ObserveUpdate(kind string, d time.Duration) {
	updateDuration.WithLabelValues(Norm(kind)).Observe(d.Seconds())
}

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
