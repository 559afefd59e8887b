package repository

import (
	"context"
	"errors"
	"time"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
)

// ErrUserNotFound is returned when a notification references a user that
// does not exist.
var ErrUserNotFound = errors.New("user not found")

// NotificationRepository persists notifications.
type NotificationRepository interface {
	// Insert stores one notification and returns it with the id, read flag
	// and creation time assigned by the database.
	Insert(ctx context.Context, n domain.NewNotification) (*domain.Notification, error)

	// InsertBatch stores all notifications in one transaction, or none.
	InsertBatch(ctx context.Context, ns []domain.NewNotification) ([]domain.Notification, error)

	// ListByUser returns up to limit notifications for userID, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)

	// MarkRead sets is_read on one notification and returns its owner.
	// found is false when no notification has that id.
	MarkRead(ctx context.Context, id int64) (userID string, found bool, err error)

	// MarkAllRead sets is_read on every unread notification of userID and
	// returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// CountUnread counts the unread notifications of userID.
	CountUnread(ctx context.Context, userID string) (int, error)

	// DeleteOlderThan removes notifications created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserDirectory answers whether a user exists. The user store itself is
// owned by another service.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
