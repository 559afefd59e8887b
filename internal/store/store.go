// Package store owns the notification records of every user. It is the only
// writer of the notifications table.
//
// Every operation fails open: on error it logs and returns a fallback value
// (an empty list, zero or false) together with an *Error whose Kind tells
// the caller what went wrong. Callers that only look at the first value get
// the fallback and nothing else.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/repository"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/logger"
)

// DefaultListLimit caps GetUserNotifications.
const DefaultListLimit = 50

// NotificationStore persists and reads notifications.
type NotificationStore struct {
	notifications repository.NotificationRepository
	users         repository.UserDirectory
	cache         UnreadCache
	listLimit     int
	logger        *slog.Logger
}

// Option configures a NotificationStore.
type Option func(*NotificationStore)

// WithUnreadCache puts c in front of unread counts.
func WithUnreadCache(c UnreadCache) Option {
	return func(s *NotificationStore) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithListLimit overrides DefaultListLimit. Non-positive values are ignored.
func WithListLimit(n int) Option {
	return func(s *NotificationStore) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// NewNotificationStore creates a store over the given repository and user
// directory.
func NewNotificationStore(
	notifications repository.NotificationRepository,
	users repository.UserDirectory,
	logger *slog.Logger,
	opts ...Option,
) *NotificationStore {
	s := &NotificationStore{
		notifications: notifications,
		users:         users,
		cache:         NopCache{},
		listLimit:     DefaultListLimit,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NotificationStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

// GetUserNotifications returns the newest notifications of userID, newest
// first, at most the configured limit. The user is not checked for
// existence.
func (s *NotificationStore) GetUserNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	const op = "get_user_notifications"

	list, err := s.notifications.ListByUser(ctx, userID, s.listLimit)
	if err != nil {
		serr := storageError(op, userID, err)
		observe(op, serr)
		s.log(ctx).ErrorContext(ctx, "failed to fetch notifications",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return []domain.Notification{}, serr
	}

	observe(op, nil)
	s.log(ctx).DebugContext(ctx, "fetched notifications",
		slog.String("user_id", userID),
		slog.Int("count", len(list)),
	)
	return list, nil
}

// MarkAsRead flags one notification as read. Marking an already read or
// unknown notification succeeds.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id int64) (bool, error) {
	const op = "mark_as_read"

	owner, found, err := s.notifications.MarkRead(ctx, id)
	if err != nil {
		serr := storageError(op, "", fmt.Errorf("notification %d: %w", id, err))
		observe(op, serr)
		s.log(ctx).ErrorContext(ctx, "failed to mark notification as read",
			slog.Int64("notification_id", id),
			slog.String("error", err.Error()),
		)
		return false, serr
	}

	observe(op, nil)
	if !found {
		s.log(ctx).DebugContext(ctx, "no notification to mark as read",
			slog.Int64("notification_id", id),
		)
		return true, nil
	}

	s.invalidate(ctx, owner)
	s.log(ctx).DebugContext(ctx, "notification marked as read",
		slog.Int64("notification_id", id),
		slog.String("user_id", owner),
	)
	return true, nil
}

// MarkAllAsRead flags every unread notification of userID as read.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID string) (bool, error) {
	const op = "mark_all_as_read"

	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		serr := storageError(op, userID, err)
		observe(op, serr)
		s.log(ctx).ErrorContext(ctx, "failed to mark all notifications as read",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return false, serr
	}

	observe(op, nil)
	s.invalidate(ctx, userID)
	s.log(ctx).DebugContext(ctx, "all notifications marked as read",
		slog.String("user_id", userID),
		slog.Int64("updated", n),
	)
	return true, nil
}

// GetUnreadCount returns how many notifications of userID are unread.
func (s *NotificationStore) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	const op = "get_unread_count"

	count, gen, ok, err := s.cache.Get(ctx, userID)
	cacheUp := err == nil
	if err != nil {
		s.log(ctx).WarnContext(ctx, "unread cache read failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		observe(op, nil)
		return count, nil
	}

	count, err = s.notifications.CountUnread(ctx, userID)
	if err != nil {
		serr := storageError(op, userID, err)
		observe(op, serr)
		s.log(ctx).ErrorContext(ctx, "failed to count unread notifications",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return 0, serr
	}

	observe(op, nil)
	if !cacheUp {
		return count, nil
	}
	// gen rejects the fill if a write invalidated the user after the miss.
	if err := s.cache.Set(ctx, userID, count, gen); err != nil {
		s.log(ctx).WarnContext(ctx, "unread cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return count, nil
}

// CreateNotification stores n after checking that its user exists. When the
// user is missing nothing is written.
func (s *NotificationStore) CreateNotification(ctx context.Context, n domain.NewNotification) (bool, error) {
	const op = "create_notification"

	if err := n.Validate(); err != nil {
		return false, s.createFailed(ctx, op, storageError(op, n.UserID, err))
	}
	if err := s.checkUser(ctx, op, n.UserID); err != nil {
		return false, s.createFailed(ctx, op, err)
	}

	stored, err := s.notifications.Insert(ctx, n)
	if err != nil {
		return false, s.createFailed(ctx, op, s.classifyInsert(op, n.UserID, err))
	}

	observe(op, nil)
	s.invalidate(ctx, n.UserID)
	s.log(ctx).InfoContext(ctx, "notification created",
		slog.Int64("notification_id", stored.ID),
		slog.String("user_id", stored.UserID),
		slog.String("type", string(stored.Type)),
	)
	return true, nil
}

// CreateNotifications stores every notification or none of them. Each
// distinct user is checked for existence before anything is written.
func (s *NotificationStore) CreateNotifications(ctx context.Context, ns []domain.NewNotification) (bool, error) {
	const op = "create_notifications"

	if len(ns) == 0 {
		return true, nil
	}

	users := make([]string, 0, len(ns))
	seen := make(map[string]struct{}, len(ns))
	for i, n := range ns {
		if err := n.Validate(); err != nil {
			return false, s.createFailed(ctx, op, storageError(op, n.UserID, fmt.Errorf("notification %d: %w", i, err)))
		}
		if _, ok := seen[n.UserID]; ok {
			continue
		}
		seen[n.UserID] = struct{}{}
		users = append(users, n.UserID)
	}

	for _, userID := range users {
		if err := s.checkUser(ctx, op, userID); err != nil {
			return false, s.createFailed(ctx, op, err)
		}
	}

	stored, err := s.notifications.InsertBatch(ctx, ns)
	if err != nil {
		return false, s.createFailed(ctx, op, s.classifyInsert(op, "", err))
	}

	observe(op, nil)
	s.invalidate(ctx, users...)
	ids := make([]int64, len(stored))
	for i := range stored {
		ids[i] = stored[i].ID
	}
	s.log(ctx).InfoContext(ctx, "notifications created",
		slog.Int("count", len(stored)),
		slog.Any("notification_ids", ids),
		slog.Any("user_ids", users),
	)
	return true, nil
}

// PurgeOlderThan deletes notifications created before cutoff and returns how
// many were removed.
func (s *NotificationStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "purge_older_than"

	n, err := s.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		serr := storageError(op, "", err)
		observe(op, serr)
		s.log(ctx).ErrorContext(ctx, "failed to purge notifications",
			slog.Time("cutoff", cutoff),
			slog.String("error", err.Error()),
		)
		return 0, serr
	}

	observe(op, nil)
	s.log(ctx).DebugContext(ctx, "purged old notifications",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", n),
	)
	return n, nil
}

func (s *NotificationStore) checkUser(ctx context.Context, op, userID string) *Error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return storageError(op, userID, fmt.Errorf("check user: %w", err))
	}
	if !exists {
		return userNotFoundError(op, userID, ErrUserNotFound)
	}
	return nil
}

// classifyInsert maps a foreign-key rejection (the user was removed after the
// existence check) to KindUserNotFound.
func (s *NotificationStore) classifyInsert(op, userID string, err error) *Error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return userNotFoundError(op, userID, err)
	}
	return storageError(op, userID, err)
}

func (s *NotificationStore) createFailed(ctx context.Context, op string, err *Error) *Error {
	observe(op, err)
	attrs := []any{
		slog.String("kind", err.Kind.String()),
		slog.String("error", err.Err.Error()),
	}
	if err.UserID != "" {
		attrs = append(attrs, slog.String("user_id", err.UserID))
	}
	if err.Kind == KindUserNotFound {
		s.log(ctx).WarnContext(ctx, "notification rejected: user not found", attrs...)
	} else {
		s.log(ctx).ErrorContext(ctx, "failed to create notification", attrs...)
	}
	return err
}

func (s *NotificationStore) invalidate(ctx context.Context, userIDs ...string) {
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log(ctx).WarnContext(ctx, "unread cache invalidation failed",
			slog.Any("user_ids", userIDs),
			slog.String("error", err.Error()),
		)
	}
}
