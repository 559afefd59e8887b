package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"

	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/logger"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond
	fetchErrorBackoff   = time.Second
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig configures a single-topic consumer group member.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// MaxRetries is the number of handler attempts per message. Zero means 3.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between attempts.
	// Zero means 100ms.
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic, decodes the envelope and invokes a Handler.
// Failing messages are retried, then handed to the dead-letter publisher and
// committed so a poison message never blocks the partition.
type Consumer struct {
	reader     messageReader
	topic      string
	group      string
	handler    Handler
	dlq        DeadLetterPublisher
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
	closeOnce  sync.Once
}

// NewConsumer creates a consumer. dlq may be nil, in which case exhausted
// messages are only logged.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq DeadLetterPublisher, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, dlq, logger)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, dlq DeadLetterPublisher, logger *slog.Logger) *Consumer {
	c := &Consumer{
		reader:     r,
		topic:      cfg.Topic,
		group:      cfg.GroupID,
		handler:    handler,
		dlq:        dlq,
		logger:     logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.backoff <= 0 {
		c.backoff = defaultRetryBackoff
	}
	return c
}

// Topic returns the topic this consumer reads.
func (c *Consumer) Topic() string { return c.topic }

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return c.Close()
			case <-time.After(fetchErrorBackoff):
			}
			continue
		}

		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles one message and commits it. It returns false when ctx was
// cancelled mid-flight; the message is then left uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	ConsumerMessagesReceived.WithLabelValues(c.topic, c.group).Inc()
	start := time.Now()

	ctx, span := startConsumeSpan(ctx, msg, c.group)
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		span.SetStatus(codes.Error, "malformed envelope")
		ConsumerMessagesFailed.WithLabelValues(c.topic, c.group, "malformed").Inc()
		c.commit(ctx, msg)
		return true
	}

	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	log := c.logger.With(
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
	)

	err = c.handleWithRetry(ctx, event, log)
	ConsumerProcessingDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		ConsumerMessagesProcessed.WithLabelValues(c.topic, c.group).Inc()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return false
	case IsPermanent(err):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ConsumerMessagesFailed.WithLabelValues(c.topic, c.group, "permanent").Inc()
		log.WarnContext(ctx, "dropping unprocessable event", slog.String("error", err.Error()))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ConsumerMessagesFailed.WithLabelValues(c.topic, c.group, "retries_exhausted").Inc()
		log.ErrorContext(ctx, "handler failed after all retries",
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("retries", c.maxRetries),
			slog.String("error", err.Error()),
		)
		if c.dlq != nil {
			if dlqErr := c.dlq.Publish(ctx, msg, err, c.group); dlqErr != nil {
				log.ErrorContext(ctx, "poison message lost, DLQ publish failed", slog.String("error", dlqErr.Error()))
			}
		}
	}

	c.commit(ctx, msg)
	return true
}

func (c *Consumer) handleWithRetry(ctx context.Context, event *Event, log *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err = c.handler(ctx, event); err == nil || IsPermanent(err) {
			return err
		}

		log.WarnContext(ctx, "handler failed, will retry",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.maxRetries),
			slog.String("error", err.Error()),
		)
		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to commit message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
