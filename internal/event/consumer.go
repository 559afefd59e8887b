// Package event feeds marketplace events from Kafka into the notification
// triggers.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/store"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/trigger"
	pkgkafka "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/kafka"
)

// Topics consumed from other services.
const (
	TopicOrderCreated       = pkgkafka.TopicPrefix + ".order.created"
	TopicOrderStatusChanged = pkgkafka.TopicPrefix + ".order.status_changed"
	TopicPaymentReceived    = pkgkafka.TopicPrefix + ".payment.received"
	TopicReviewCreated      = pkgkafka.TopicPrefix + ".review.created"
	TopicMessageCreated     = pkgkafka.TopicPrefix + ".message.created"
	TopicSystemNotice       = pkgkafka.TopicPrefix + ".system.notice"
)

// Triggers is the set of notification triggers the consumers call.
type Triggers interface {
	OnNewOrder(ctx context.Context, e trigger.NewOrder) error
	OnOrderStatusChange(ctx context.Context, e trigger.OrderStatusChange) error
	OnPaymentReceived(ctx context.Context, e trigger.PaymentReceived) error
	OnReviewReceived(ctx context.Context, e trigger.ReviewReceived) error
	OnMessageReceived(ctx context.Context, e trigger.MessageReceived) error
	SendSystemNotification(ctx context.Context, userID, title, message string) error
}

// ConsumerHandler decodes event payloads and calls the matching trigger.
type ConsumerHandler struct {
	triggers Triggers
	logger   *slog.Logger
}

func NewConsumerHandler(triggers Triggers, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{triggers: triggers, logger: logger}
}

// Routes maps every consumed topic to its handler.
func (h *ConsumerHandler) Routes() map[string]pkgkafka.Handler {
	return map[string]pkgkafka.Handler{
		TopicOrderCreated:       h.handleOrderCreated,
		TopicOrderStatusChanged: h.handleOrderStatusChanged,
		TopicPaymentReceived:    h.handlePaymentReceived,
		TopicReviewCreated:      h.handleReviewCreated,
		TopicMessageCreated:     h.handleMessageCreated,
		TopicSystemNotice:       h.handleSystemNotice,
	}
}

// Topics returns the consumed topics in a stable order.
func Topics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicPaymentReceived,
		TopicReviewCreated,
		TopicMessageCreated,
		TopicSystemNotice,
	}
}

type orderPayload struct {
	OrderID      int64  `json:"order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ServiceTitle string `json:"service_title"`
}

func (p orderPayload) validate() error {
	return required(map[string]string{"buyer_id": p.BuyerID, "seller_id": p.SellerID})
}

type orderStatusPayload struct {
	orderPayload
	NewStatus string `json:"new_status"`
}

type paymentPayload struct {
	OrderID  int64   `json:"order_id"`
	BuyerID  string  `json:"buyer_id"`
	SellerID string  `json:"seller_id"`
	Amount   float64 `json:"amount"`
}

type reviewPayload struct {
	SellerID     string `json:"seller_id"`
	Rating       int    `json:"rating"`
	ServiceTitle string `json:"service_title"`
}

type messagePayload struct {
	ReceiverID string `json:"receiver_id"`
	SenderName string `json:"sender_name"`
}

type systemNoticePayload struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *ConsumerHandler) handleOrderCreated(ctx context.Context, event *pkgkafka.Event) error {
	var p orderPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return pkgkafka.Permanent(err)
	}
	return classify(h.triggers.OnNewOrder(ctx, trigger.NewOrder(p)))
}

func (h *ConsumerHandler) handleOrderStatusChanged(ctx context.Context, event *pkgkafka.Event) error {
	var p orderStatusPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return pkgkafka.Permanent(err)
	}
	if _, ok := domain.ParseOrderStatus(p.NewStatus); !ok {
		h.logger.InfoContext(ctx, "order status has no notification",
			slog.String("event_id", event.EventID),
			slog.Int64("order_id", p.OrderID),
			slog.String("status", p.NewStatus),
		)
	}
	return classify(h.triggers.OnOrderStatusChange(ctx, trigger.OrderStatusChange{
		OrderID:      p.OrderID,
		BuyerID:      p.BuyerID,
		SellerID:     p.SellerID,
		ServiceTitle: p.ServiceTitle,
		NewStatus:    domain.OrderStatus(p.NewStatus),
	}))
}

func (h *ConsumerHandler) handlePaymentReceived(ctx context.Context, event *pkgkafka.Event) error {
	var p paymentPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := required(map[string]string{"buyer_id": p.BuyerID, "seller_id": p.SellerID}); err != nil {
		return pkgkafka.Permanent(err)
	}
	return classify(h.triggers.OnPaymentReceived(ctx, trigger.PaymentReceived(p)))
}

func (h *ConsumerHandler) handleReviewCreated(ctx context.Context, event *pkgkafka.Event) error {
	var p reviewPayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := required(map[string]string{"seller_id": p.SellerID}); err != nil {
		return pkgkafka.Permanent(err)
	}
	if p.Rating < 1 || p.Rating > 5 {
		return pkgkafka.Permanent(fmt.Errorf("rating %d is outside 1..5", p.Rating))
	}
	return classify(h.triggers.OnReviewReceived(ctx, trigger.ReviewReceived(p)))
}

func (h *ConsumerHandler) handleMessageCreated(ctx context.Context, event *pkgkafka.Event) error {
	var p messagePayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := required(map[string]string{"receiver_id": p.ReceiverID}); err != nil {
		return pkgkafka.Permanent(err)
	}
	return classify(h.triggers.OnMessageReceived(ctx, trigger.MessageReceived(p)))
}

func (h *ConsumerHandler) handleSystemNotice(ctx context.Context, event *pkgkafka.Event) error {
	var p systemNoticePayload
	if err := decode(event, &p); err != nil {
		return err
	}
	if err := required(map[string]string{"user_id": p.UserID, "title": p.Title, "message": p.Message}); err != nil {
		return pkgkafka.Permanent(err)
	}
	return classify(h.triggers.SendSystemNotification(ctx, p.UserID, p.Title, p.Message))
}

func decode(event *pkgkafka.Event, target any) error {
	if err := event.UnmarshalData(target); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return nil
}

func required(fields map[string]string) error {
	var errs []error
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	return errors.Join(errs...)
}

// classify marks failures that a retry cannot fix as permanent. Storage
// failures stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if store.KindOf(err) == store.KindUserNotFound {
		return pkgkafka.Permanent(err)
	}
	return err
}
