package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes.
const (
	outcomeSuccess      = "success"
	outcomeUserNotFound = "user_not_found"
	outcomeError        = "error"
)

// OperationsTotal counts store operations by outcome.
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_store_operations_total",
		Help: "Total number of notification store operations by outcome",
	},
	[]string{"operation", "outcome"},
)

func observe(operation string, err error) {
	outcome := outcomeSuccess
	switch KindOf(err) {
	case KindUserNotFound:
		outcome = outcomeUserNotFound
	case KindStorage:
		outcome = outcomeError
	}
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
}
