package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		transactionsTotal,
		revenueTotal,
		grantsTotal,
	)
}

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Transaction rows written, by status (pending/success/failed/refunded).",
		},
		[]string{"status"},
	)

	revenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revenue_minor_units_total",
			Help: "Captured revenue in currency minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	grantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_grants_total",
			Help: "Entitlement grant outcomes (granted/duplicate/revoked).",
		},
		[]string{"outcome"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncTransaction(status string) {
	transactionsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(currency string, minor int64) {
	revenueTotal.WithLabelValues(norm(currency)).Add(float64(minor))
}

func IncGrant(outcome string) {
	grantsTotal.WithLabelValues(norm(outcome)).Inc()
}
