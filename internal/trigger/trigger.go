// Package trigger turns marketplace events into notifications with bilingual
// copy. Events that concern both sides of an order are stored in one batch,
// so either both parties are notified or neither is.
package trigger

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/logger"
)

// Event names used in logs and metrics.
const (
	EventNewOrder           = "new_order"
	EventOrderStatusChange  = "order_status_change"
	EventPaymentReceived    = "payment_received"
	EventReviewReceived     = "review_received"
	EventMessageReceived    = "message_received"
	EventSystemNotification = "system_notification"
)

// Notifier is the part of the notification store the triggers write to.
type Notifier interface {
	CreateNotification(ctx context.Context, n domain.NewNotification) (bool, error)
	CreateNotifications(ctx context.Context, ns []domain.NewNotification) (bool, error)
}

// Triggers maps events to notifications. It holds no state besides its copy.
type Triggers struct {
	store   Notifier
	catalog *Catalog
	logger  *slog.Logger
}

// Option configures Triggers.
type Option func(*Triggers)

// WithCatalog replaces the embedded copy.
func WithCatalog(c *Catalog) Option {
	return func(t *Triggers) {
		if c != nil {
			t.catalog = c
		}
	}
}

func New(store Notifier, logger *slog.Logger, opts ...Option) *Triggers {
	t := &Triggers{
		store:   store,
		catalog: DefaultCatalog(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewOrder is raised when a buyer places an order.
type NewOrder struct {
	OrderID      int64  `json:"order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ServiceTitle string `json:"service_title"`
}

// OrderStatusChange is raised when an order moves to NewStatus. Transitions
// are not checked.
type OrderStatusChange struct {
	OrderID      int64              `json:"order_id"`
	BuyerID      string             `json:"buyer_id"`
	SellerID     string             `json:"seller_id"`
	ServiceTitle string             `json:"service_title"`
	NewStatus    domain.OrderStatus `json:"new_status"`
}

type PaymentReceived struct {
	OrderID  int64   `json:"order_id"`
	BuyerID  string  `json:"buyer_id"`
	SellerID string  `json:"seller_id"`
	Amount   float64 `json:"amount"`
}

type ReviewReceived struct {
	SellerID     string `json:"seller_id"`
	Rating       int    `json:"rating"`
	ServiceTitle string `json:"service_title"`
}

type MessageReceived struct {
	ReceiverID string `json:"receiver_id"`
	SenderName string `json:"sender_name"`
}

// OnNewOrder tells the seller about the order and confirms it to the buyer.
func (t *Triggers) OnNewOrder(ctx context.Context, e NewOrder) error {
	vars := orderVars(e.OrderID, e.ServiceTitle)
	return t.notifyParties(ctx, EventNewOrder, t.catalog.NewOrder, e.BuyerID, e.SellerID, domain.TypeOrder, vars...)
}

// OnOrderStatusChange notifies both parties of a known status. Unknown
// statuses are dropped without writing anything.
func (t *Triggers) OnOrderStatusChange(ctx context.Context, e OrderStatusChange) error {
	status, known := domain.ParseOrderStatus(string(e.NewStatus))
	pc, ok := t.catalog.OrderStatus[status]
	if !known || !ok {
		EventsTotal.WithLabelValues(EventOrderStatusChange, outcomeDropped).Inc()
		logger.FromContext(ctx, t.logger).DebugContext(ctx, "ignoring unknown order status",
			slog.Int64("order_id", e.OrderID),
			slog.String("status", string(e.NewStatus)),
		)
		return nil
	}

	vars := orderVars(e.OrderID, e.ServiceTitle)
	return t.notifyParties(ctx, EventOrderStatusChange, pc, e.BuyerID, e.SellerID, domain.TypeOrder, vars...)
}

func (t *Triggers) OnPaymentReceived(ctx context.Context, e PaymentReceived) error {
	vars := []string{
		"{order}", strconv.FormatInt(e.OrderID, 10),
		"{amount}", formatAmount(e.Amount),
	}
	return t.notifyParties(ctx, EventPaymentReceived, t.catalog.PaymentReceived, e.BuyerID, e.SellerID, domain.TypePayment, vars...)
}

// OnReviewReceived notifies the seller only.
func (t *Triggers) OnReviewReceived(ctx context.Context, e ReviewReceived) error {
	n := t.catalog.ReviewReceived.Render(e.SellerID, domain.TypeReview,
		"{rating}", strconv.Itoa(e.Rating),
		"{service}", e.ServiceTitle,
	)
	return t.notifyOne(ctx, EventReviewReceived, n)
}

// OnMessageReceived notifies the receiver only.
func (t *Triggers) OnMessageReceived(ctx context.Context, e MessageReceived) error {
	n := t.catalog.MessageReceived.Render(e.ReceiverID, domain.TypeMessage, "{sender}", e.SenderName)
	return t.notifyOne(ctx, EventMessageReceived, n)
}

// SendSystemNotification sends caller-supplied Arabic copy to one user. The
// English fields carry the same text.
func (t *Triggers) SendSystemNotification(ctx context.Context, userID, title, message string) error {
	return t.SendLocalizedSystemNotification(ctx, userID,
		Text{Ar: title, En: title},
		Text{Ar: message, En: message},
	)
}

// SendLocalizedSystemNotification sends a system notification with separate
// Arabic and English copy.
func (t *Triggers) SendLocalizedSystemNotification(ctx context.Context, userID string, title, message Text) error {
	n := Copy{Title: title, Message: message}.Render(userID, domain.TypeSystem)
	return t.notifyOne(ctx, EventSystemNotification, n)
}

func (t *Triggers) notifyParties(ctx context.Context, event string, pc PartyCopy, buyerID, sellerID string, typ domain.NotificationType, vars ...string) error {
	batch := []domain.NewNotification{
		pc.Seller.Render(sellerID, typ, vars...),
		pc.Buyer.Render(buyerID, typ, vars...),
	}
	_, err := t.store.CreateNotifications(ctx, batch)
	t.done(ctx, event, err, slog.String("buyer_id", buyerID), slog.String("seller_id", sellerID))
	return err
}

func (t *Triggers) notifyOne(ctx context.Context, event string, n domain.NewNotification) error {
	_, err := t.store.CreateNotification(ctx, n)
	t.done(ctx, event, err, slog.String("user_id", n.UserID))
	return err
}

func (t *Triggers) done(ctx context.Context, event string, err error, attrs ...any) {
	observe(event, err)
	log := logger.FromContext(ctx, t.logger)
	if err != nil {
		log.WarnContext(ctx, "notification trigger failed",
			append(attrs, slog.String("event", event), slog.String("error", err.Error()))...)
		return
	}
	log.DebugContext(ctx, "notification trigger delivered", append(attrs, slog.String("event", event))...)
}

func orderVars(orderID int64, service string) []string {
	return []string{
		"{order}", strconv.FormatInt(orderID, 10),
		"{service}", service,
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
