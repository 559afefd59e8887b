package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/store"
)

// Event outcomes.
const (
	outcomeDelivered    = "delivered"
	outcomeDropped      = "dropped"
	outcomeUserNotFound = "user_not_found"
	outcomeError        = "error"
)

// EventsTotal counts trigger invocations by outcome.
var EventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_trigger_events_total",
		Help: "Total number of notification trigger events by outcome",
	},
	[]string{"event", "outcome"},
)

func observe(event string, err error) {
	outcome := outcomeDelivered
	switch store.KindOf(err) {
	case store.KindUserNotFound:
		outcome = outcomeUserNotFound
	case store.KindStorage:
		outcome = outcomeError
	}
	EventsTotal.WithLabelValues(event, outcome).Inc()
}
