package domain

import (
	"errors"
	"fmt"
	"time"
)

// NotificationType tags the domain that produced a notification. It drives
// display styling only.
type NotificationType string

const (
	TypeOrder   NotificationType = "order"
	TypeMessage NotificationType = "message"
	TypeReview  NotificationType = "review"
	TypeSystem  NotificationType = "system"
	TypePayment NotificationType = "payment"
)

// NotificationTypes returns every valid notification type.
func NotificationTypes() []NotificationType {
	return []NotificationType{TypeOrder, TypeMessage, TypeReview, TypeSystem, TypePayment}
}

func (t NotificationType) Valid() bool {
	switch t {
	case TypeOrder, TypeMessage, TypeReview, TypeSystem, TypePayment:
		return true
	}
	return false
}

// ParseNotificationType rejects anything outside the closed set.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

// Notification is a stored, append-only message to one user. Only IsRead
// changes after creation, and only from false to true.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	TitleAr   string           `json:"title_ar"`
	TitleEn   *string          `json:"title_en,omitempty"`
	MessageAr string           `json:"message_ar"`
	MessageEn *string          `json:"message_en,omitempty"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Title returns the title for locale, falling back to Arabic.
func (n *Notification) Title(locale Locale) string {
	return pick(locale, n.TitleAr, n.TitleEn)
}

// Message returns the body for locale, falling back to Arabic.
func (n *Notification) Message(locale Locale) string {
	return pick(locale, n.MessageAr, n.MessageEn)
}

func pick(locale Locale, ar string, en *string) string {
	if locale == LocaleEnglish && en != nil && *en != "" {
		return *en
	}
	return ar
}

// NewNotification is the input to create a notification. The id, read flag
// and creation time are always assigned by the store.
type NewNotification struct {
	UserID    string
	TitleAr   string
	TitleEn   *string
	MessageAr string
	MessageEn *string
	Type      NotificationType
}

// ErrInvalidNotification is wrapped by every Validate failure.
var ErrInvalidNotification = errors.New("invalid notification")

// Validate rejects types outside the closed set. Copy is stored as given,
// and an unknown or blank user is left to the existence check.
func (n NewNotification) Validate() error {
	if !n.Type.Valid() {
		return fmt.Errorf("%w: type %q is not valid", ErrInvalidNotification, n.Type)
	}
	return nil
}
