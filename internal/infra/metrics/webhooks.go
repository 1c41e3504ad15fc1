package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookRejectedTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook deliveries routed, by event type and outcome.",
		},
		[]string{"event_type", "outcome"}, // outcome: handled|skipped|error
	)

	webhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Webhook deliveries rejected before routing.",
		},
		[]string{"reason"}, // signature|unconfigured|body
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncWebhookRejected(reason string) {
	webhookRejectedTotal.WithLabelValues(norm(reason)).Inc()
}
