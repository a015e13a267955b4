// Package metrics provides Prometheus metrics for the order-status synchronization path.
// Label values are fixed sets; order ids and customer refs never become labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition results.
const (
	TransitionApplied  = "applied"
	TransitionNoop     = "noop"
	TransitionRejected = "rejected"
	TransitionNotFound = "not_found"
	TransitionConflict = "conflict"
	TransitionError    = "error"
)

// Notification results.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// Operator action results.
const (
	ActionApplied   = "applied"
	ActionDuplicate = "duplicate"
	ActionRejected  = "rejected"
	ActionFailed    = "failed"
)

// Tracking poll results.
const (
	PollChanged   = "changed"
	PollUnchanged = "unchanged"
	PollCleared   = "cleared"
	PollSkipped   = "skipped"
	PollFailed    = "failed"
)

var (
	// TransitionsTotal counts status change requests handled by the transition engine.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_transitions_total",
		Help: "Total number of order status change requests, by result.",
	}, []string{"result"})

	// NotificationsTotal counts customer notification attempts.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_notifications_total",
		Help: "Total number of customer status notifications, by result.",
	}, []string{"result"})

	// OperatorActionsTotal counts actions received from the operator control channel.
	OperatorActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_operator_actions_total",
		Help: "Total number of operator control actions, by result.",
	}, []string{"result"})

	// TrackingPollsTotal counts tracking session polls.
	TrackingPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_tracking_polls_total",
		Help: "Total number of tracking polls, by result.",
	}, []string{"result"})
)

// RecordTransition increments TransitionsTotal for result.
func RecordTransition(result string) {
	TransitionsTotal.WithLabelValues(result).Inc()
}

// RecordNotification increments NotificationsTotal for result.
func RecordNotification(result string) {
	NotificationsTotal.WithLabelValues(result).Inc()
}

// RecordOperatorAction increments OperatorActionsTotal for result.
func RecordOperatorAction(result string) {
	OperatorActionsTotal.WithLabelValues(result).Inc()
}

// RecordPoll increments TrackingPollsTotal for result.
func RecordPoll(result string) {
	TrackingPollsTotal.WithLabelValues(result).Inc()
}
