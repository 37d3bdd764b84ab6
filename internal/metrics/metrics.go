package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OrdersTotal counts order submissions by source and outcome
	// (committed/aborted).
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oakline_orders_total",
			Help: "Order submissions by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// NotifyFailures counts post-commit notification deliveries that failed.
	NotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oakline_notify_failures_total",
			Help: "Post-commit order notifications that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersTotal, NotifyFailures)
}
