package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/store"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/trigger"
	pkgkafka "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/kafka"
)

// --- Mock Triggers ---

type mockTriggers struct {
	mock.Mock
}

func (m *mockTriggers) OnNewOrder(ctx context.Context, e trigger.NewOrder) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockTriggers) OnOrderStatusChange(ctx context.Context, e trigger.OrderStatusChange) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockTriggers) OnPaymentReceived(ctx context.Context, e trigger.PaymentReceived) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockTriggers) OnReviewReceived(ctx context.Context, e trigger.ReviewReceived) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockTriggers) OnMessageReceived(ctx context.Context, e trigger.MessageReceived) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockTriggers) SendSystemNotification(ctx context.Context, userID, title, message string) error {
	return m.Called(ctx, userID, title, message).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(eventType, "agg-1", "order-service", data)
	require.NoError(t, err)
	return ev
}

func route(t *testing.T, tr *mockTriggers, topic string) pkgkafka.Handler {
	t.Helper()
	h, ok := NewConsumerHandler(tr, newTestLogger()).Routes()[topic]
	require.True(t, ok, "no route for %s", topic)
	return h
}

func TestRoutes_CoverEveryTopic(t *testing.T) {
	routes := NewConsumerHandler(new(mockTriggers), newTestLogger()).Routes()
	assert.Len(t, routes, len(Topics()))
	for _, topic := range Topics() {
		assert.Contains(t, routes, topic)
	}
	assert.Equal(t, "marketplace.order.status_changed", TopicOrderStatusChanged)
}

func TestOrderCreated(t *testing.T) {
	tr := new(mockTriggers)
	tr.On("OnNewOrder", mock.Anything, trigger.NewOrder{OrderID: 1, BuyerID: "b", SellerID: "s", ServiceTitle: "Logo"}).
		Return(nil).Once()

	err := route(t, tr, TopicOrderCreated)(context.Background(), newEvent(t, "order.created", map[string]any{
		"order_id": 1, "buyer_id": "b", "seller_id": "s", "service_title": "Logo",
	}))
	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestOrderStatusChanged_PassesStatusThrough(t *testing.T) {
	tr := new(mockTriggers)
	tr.On("OnOrderStatusChange", mock.Anything, mock.MatchedBy(func(e trigger.OrderStatusChange) bool {
		return e.NewStatus == domain.OrderCompleted && e.OrderID == 4 && e.ServiceTitle == "Logo"
	})).Return(nil).Once()

	err := route(t, tr, TopicOrderStatusChanged)(context.Background(), newEvent(t, "order.status_changed", map[string]any{
		"order_id": 4, "buyer_id": "b", "seller_id": "s", "service_title": "Logo", "new_status": "completed",
	}))
	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestPaymentReceived(t *testing.T) {
	tr := new(mockTriggers)
	tr.On("OnPaymentReceived", mock.Anything, trigger.PaymentReceived{OrderID: 2, BuyerID: "b", SellerID: "s", Amount: 99.9}).
		Return(nil).Once()

	err := route(t, tr, TopicPaymentReceived)(context.Background(), newEvent(t, "payment.received", map[string]any{
		"order_id": 2, "buyer_id": "b", "seller_id": "s", "amount": 99.9,
	}))
	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestReviewCreated_RejectsBadRating(t *testing.T) {
	tr := new(mockTriggers)

	err := route(t, tr, TopicReviewCreated)(context.Background(), newEvent(t, "review.created", map[string]any{
		"seller_id": "s", "rating": 9, "service_title": "Logo",
	}))
	require.Error(t, err)
	assert.True(t, pkgkafka.IsPermanent(err))
	tr.AssertNotCalled(t, "OnReviewReceived", mock.Anything, mock.Anything)
}

func TestMessageCreated(t *testing.T) {
	tr := new(mockTriggers)
	tr.On("OnMessageReceived", mock.Anything, trigger.MessageReceived{ReceiverID: "r", SenderName: "Sara"}).Return(nil)

	err := route(t, tr, TopicMessageCreated)(context.Background(), newEvent(t, "message.created", map[string]any{
		"receiver_id": "r", "sender_name": "Sara",
	}))
	require.NoError(t, err)
}

func TestSystemNotice(t *testing.T) {
	tr := new(mockTriggers)
	tr.On("SendSystemNotification", mock.Anything, "u", "تنبيه", "نص").Return(nil).Once()

	err := route(t, tr, TopicSystemNotice)(context.Background(), newEvent(t, "system.notice", map[string]any{
		"user_id": "u", "title": "تنبيه", "message": "نص",
	}))
	require.NoError(t, err)
	tr.AssertExpectations(t)
}

func TestMissingFieldsArePermanent(t *testing.T) {
	tests := []struct {
		topic string
		data  map[string]any
		field string
	}{
		{TopicOrderCreated, map[string]any{"order_id": 1, "seller_id": "s"}, "buyer_id"},
		{TopicOrderStatusChanged, map[string]any{"buyer_id": "b", "new_status": "pending"}, "seller_id"},
		{TopicPaymentReceived, map[string]any{"seller_id": "s", "amount": 1}, "buyer_id"},
		{TopicMessageCreated, map[string]any{"sender_name": "x"}, "receiver_id"},
		{TopicSystemNotice, map[string]any{"user_id": "u", "title": "t"}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			tr := new(mockTriggers)
			err := route(t, tr, tt.topic)(context.Background(), newEvent(t, tt.topic, tt.data))
			require.Error(t, err)
			assert.True(t, pkgkafka.IsPermanent(err))
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, tr.Calls)
		})
	}
}

func TestMalformedPayloadIsPermanent(t *testing.T) {
	tr := new(mockTriggers)
	ev := newEvent(t, "order.created", map[string]any{})
	ev.Data = json.RawMessage(`{"order_id":"not-a-number"}`)

	err := route(t, tr, TopicOrderCreated)(context.Background(), ev)
	require.Error(t, err)
	assert.True(t, pkgkafka.IsPermanent(err))
}

func TestTriggerErrors(t *testing.T) {
	payload := map[string]any{"receiver_id": "r", "sender_name": "Sara"}

	t.Run("user not found is permanent", func(t *testing.T) {
		tr := new(mockTriggers)
		tr.On("OnMessageReceived", mock.Anything, mock.Anything).
			Return(&store.Error{Kind: store.KindUserNotFound, Op: "create_notification", Err: store.ErrUserNotFound})

		err := route(t, tr, TopicMessageCreated)(context.Background(), newEvent(t, "message.created", payload))
		require.Error(t, err)
		assert.True(t, pkgkafka.IsPermanent(err))
	})

	t.Run("storage failure is retried", func(t *testing.T) {
		tr := new(mockTriggers)
		tr.On("OnMessageReceived", mock.Anything, mock.Anything).
			Return(&store.Error{Kind: store.KindStorage, Op: "create_notification", Err: errors.New("timeout")})

		err := route(t, tr, TopicMessageCreated)(context.Background(), newEvent(t, "message.created", payload))
		require.Error(t, err)
		assert.False(t, pkgkafka.IsPermanent(err))
	})
}

func TestNewConsumers(t *testing.T) {
	h := NewConsumerHandler(new(mockTriggers), newTestLogger())
	consumers := NewConsumers(ConsumersConfig{Brokers: []string{"localhost:9092"}}, h,
		pkgkafka.NewMemoryIdempotencyStore(0), nil, newTestLogger())

	require.Len(t, consumers, len(Topics()))
	for i, c := range consumers {
		assert.Equal(t, Topics()[i], c.Topic())
		_ = c.Close()
	}
}
