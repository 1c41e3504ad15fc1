package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Courier notification attempts, by kind and result.",
	},
	[]string{"kind", "result"}, // kind: processing|confirmation|refund, result: ok|error
)

func IncNotification(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	notificationsTotal.WithLabelValues(norm(kind), result).Inc()
}
