package event

import (
	"log/slog"

	pkgkafka "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/kafka"
)

// ConsumerGroupID is the default consumer group of the notification service.
const ConsumerGroupID = "notification-service"

// ConsumersConfig configures one consumer per topic.
type ConsumersConfig struct {
	Brokers []string
	GroupID string
}

// NewConsumers builds a consumer for every topic in Routes. Handlers are
// deduplicated through idem, and exhausted messages go to dlq.
func NewConsumers(
	cfg ConsumersConfig,
	h *ConsumerHandler,
	idem pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterPublisher,
	logger *slog.Logger,
) []*pkgkafka.Consumer {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = ConsumerGroupID
	}

	routes := h.Routes()
	consumers := make([]*pkgkafka.Consumer, 0, len(routes))
	for _, topic := range Topics() {
		handler := pkgkafka.IdempotentHandler(idem, routes[topic], logger)
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.Brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}, handler, dlq, logger))
	}
	return consumers
}
