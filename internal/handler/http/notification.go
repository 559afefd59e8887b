package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/display"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/store"
	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/trigger"
	apperrors "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/errors"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/httputil"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/validator"
)

// NotificationStore is the read and mark side of the store.
type NotificationStore interface {
	GetUserNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, id int64) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) (bool, error)
}

// SystemNotifier sends system notifications.
type SystemNotifier interface {
	SendSystemNotification(ctx context.Context, userID, title, message string) error
	SendLocalizedSystemNotification(ctx context.Context, userID string, title, message trigger.Text) error
}

// NotificationHandler handles HTTP requests for notification endpoints.
type NotificationHandler struct {
	store    NotificationStore
	notifier SystemNotifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewNotificationHandler(s NotificationStore, notifier SystemNotifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		store:    s,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// --- Request / response DTOs ---

// SystemNotificationRequest is the body of POST /api/v1/notifications/system.
// Without English copy the Arabic text is used for both languages.
type SystemNotificationRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	TitleAr   string `json:"title_ar" validate:"required,notblank,maxrunes=200"`
	MessageAr string `json:"message_ar" validate:"required,notblank,maxrunes=2000"`
	TitleEn   string `json:"title_en" validate:"omitempty,maxrunes=200"`
	MessageEn string `json:"message_en" validate:"omitempty,maxrunes=2000"`
}

type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}

type createdResponse struct {
	Created bool `json:"created"`
}

// --- Handlers ---

// ListByUser handles GET /api/v1/users/{userId}/notifications
func (h *NotificationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	notifications, err := h.store.GetUserNotifications(r.Context(), userID.String())
	if err != nil {
		httputil.MarkDegraded(w)
	}

	locale := requestLocale(r)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: display.FormatAll(notifications, locale, h.now()),
	})
}

// UnreadCount handles GET /api/v1/users/{userId}/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	count, err := h.store.GetUnreadCount(r.Context(), userID.String())
	if err != nil {
		httputil.MarkDegraded(w)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: unreadCountResponse{UnreadCount: count}})
}

// MarkAllAsRead handles PUT /api/v1/users/{userId}/notifications/read
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	updated, err := h.store.MarkAllAsRead(r.Context(), userID.String())
	if err != nil {
		h.writeStoreError(w, r, err, userID.String())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updatedResponse{Updated: updated}})
}

// MarkAsRead handles PUT /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	updated, err := h.store.MarkAsRead(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updatedResponse{Updated: updated}})
}

// SendSystemNotification handles POST /api/v1/notifications/system
func (h *NotificationHandler) SendSystemNotification(w http.ResponseWriter, r *http.Request) {
	var req SystemNotificationRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	var err error
	if req.TitleEn == "" && req.MessageEn == "" {
		err = h.notifier.SendSystemNotification(r.Context(), req.UserID, req.TitleAr, req.MessageAr)
	} else {
		err = h.notifier.SendLocalizedSystemNotification(r.Context(), req.UserID,
			trigger.Text{Ar: req.TitleAr, En: req.TitleEn},
			trigger.Text{Ar: req.MessageAr, En: req.MessageEn},
		)
	}
	if err != nil {
		h.writeStoreError(w, r, err, req.UserID)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: createdResponse{Created: true}})
}

func (h *NotificationHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, userID string) {
	if store.KindOf(err) == store.KindUserNotFound {
		httputil.WriteError(w, r, apperrors.NotFound("user", userID), h.logger)
		return
	}
	httputil.WriteError(w, r, apperrors.Unavailable("notification store", err), h.logger)
}

// requestLocale reads ?locale= and falls back to Accept-Language.
func requestLocale(r *http.Request) domain.Locale {
	if v := r.URL.Query().Get("locale"); v != "" {
		return domain.ParseLocale(v)
	}
	lang := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	return domain.ParseLocale(lang)
}
