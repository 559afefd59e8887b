package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/repository"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/database"
)

const foreignKeyViolation = "23503"

const notificationColumns = `id, user_id::text, title_ar, title_en, message_ar, message_en, type, is_read, created_at`

const insertNotification = `
	INSERT INTO notifications (user_id, title_ar, title_en, message_ar, message_en, type)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + notificationColumns

// NotificationRepository implements repository.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	pool database.DBTX
}

func NewNotificationRepository(pool database.DBTX) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func insertArgs(n domain.NewNotification) []any {
	return []any{n.UserID, n.TitleAr, n.TitleEn, n.MessageAr, n.MessageEn, string(n.Type)}
}

// Insert stores n. A foreign-key violation on user_id is reported as
// repository.ErrUserNotFound.
func (r *NotificationRepository) Insert(ctx context.Context, n domain.NewNotification) (_ *domain.Notification, err error) {
	ctx, end := database.TraceQuery(ctx, "InsertNotification", insertNotification)
	defer func() { end(err) }()

	stored, err := scanNotification(r.pool.QueryRow(ctx, insertNotification, insertArgs(n)...))
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", classify(err))
	}
	return stored, nil
}

func (r *NotificationRepository) InsertBatch(ctx context.Context, ns []domain.NewNotification) (_ []domain.Notification, err error) {
	ctx, end := database.TraceQuery(ctx, "InsertNotificationBatch", insertNotification)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin notification batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored := make([]domain.Notification, 0, len(ns))
	for i, n := range ns {
		row, err := scanNotification(tx.QueryRow(ctx, insertNotification, insertArgs(n)...))
		if err != nil {
			return nil, fmt.Errorf("insert notification %d of %d: %w", i+1, len(ns), classify(err))
		}
		stored = append(stored, *row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit notification batch: %w", err)
	}
	return stored, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) (_ []domain.Notification, err error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListNotificationsByUser", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications by user: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (_ string, _ bool, err error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 RETURNING user_id::text`

	ctx, end := database.TraceQuery(ctx, "MarkNotificationRead", query)
	defer func() { end(err) }()

	var userID string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return userID, true, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (_ int64, err error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`

	ctx, end := database.TraceQuery(ctx, "MarkAllNotificationsRead", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (_ int, err error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`

	ctx, end := database.TraceQuery(ctx, "CountUnreadNotifications", query)
	defer func() { end(err) }()

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	query := `DELETE FROM notifications WHERE created_at < $1`

	ctx, end := database.TraceQuery(ctx, "DeleteOldNotifications", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete notifications older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return ct.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n       domain.Notification
		notType string
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.TitleAr,
		&n.TitleEn,
		&n.MessageAr,
		&n.MessageEn,
		&notType,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(notType)
	return &n, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", repository.ErrUserNotFound, pgErr.Detail)
	}
	return err
}
