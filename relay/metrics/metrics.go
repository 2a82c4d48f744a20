// Package metrics holds the relay's domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/m3rciful/relaybot/core/metrics"
)

func init() {
	coremetrics.Register(
		eventsTotal,
		actionsTotal,
		usersRegisteredTotal,
		gatedTotal,
		proposalsSubmittedTotal,
		proposalItemsTotal,
		moderationActionsTotal,
		storeSaveFailuresTotal,
		storeLoadFailuresTotal,
	)
}

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Inbound events by author role and payload kind.",
		},
		[]string{"role", "kind"},
	)

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_actions_total",
			Help: "Outbound actions produced by the core, by kind.",
		},
		[]string{"kind"},
	)

	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_users_registered_total",
			Help: "First contacts added to the user registry.",
		},
	)

	gatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gated_total",
			Help: "User events rejected by gating, by reason.",
		},
		[]string{"reason"},
	)

	proposalsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_proposals_submitted_total",
			Help: "Proposals submitted to the admin.",
		},
	)

	proposalItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_proposal_items_total",
			Help: "Proposal items delivered to the admin, by kind.",
		},
		[]string{"kind"},
	)

	moderationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_moderation_actions_total",
			Help: "Admin moderation actions, by action name.",
		},
		[]string{"action"},
	)

	storeSaveFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_store_save_failures_total",
			Help: "Store writes that failed and were swallowed.",
		},
		[]string{"store"},
	)

	storeLoadFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_store_load_failures_total",
			Help: "Store reads that fell back to the default value.",
		},
		[]string{"store"},
	)
)

func IncEvent(role, kind string) {
	eventsTotal.WithLabelValues(coremetrics.Norm(role), coremetrics.Norm(kind)).Inc()
}

func IncAction(kind string) {
	actionsTotal.WithLabelValues(coremetrics.Norm(kind)).Inc()
}

func IncUserRegistered() {
	usersRegisteredTotal.Inc()
}

func IncGated(reason string) {
	gatedTotal.WithLabelValues(coremetrics.Norm(reason)).Inc()
}

func IncProposalSubmitted() {
	proposalsSubmittedTotal.Inc()
}

func IncProposalItem(kind string) {
	proposalItemsTotal.WithLabelValues(coremetrics.Norm(kind)).Inc()
}

func IncModeration(action string) {
	moderationActionsTotal.WithLabelValues(coremetrics.Norm(action)).Inc()
}

func IncStoreSaveFailure(store string) {
	storeSaveFailuresTotal.WithLabelValues(coremetrics.Norm(store)).Inc()
}

func IncStoreLoadFailure(store string) {
	storeLoadFailuresTotal.WithLabelValues(coremetrics.Norm(store)).Inc()
}

// StoreSaveFailures reads the current save failure count, for tests.
func StoreSaveFailures(store string) float64 {
	return counterValue(storeSaveFailuresTotal.WithLabelValues(coremetrics.Norm(store)))
}
