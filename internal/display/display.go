// Package display shapes stored notifications for a client in one locale.
package display

import (
	"fmt"
	"time"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// Notification is the client view of a stored notification.
type Notification struct {
	ID        int64                   `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Unread    bool                    `json:"unread"`
	CreatedAt time.Time               `json:"created_at"`
	TimeAgo   string                  `json:"time_ago"`
}

// Format renders n for locale as seen at now. Title and message fall back to
// Arabic when the English copy is missing.
func Format(n domain.Notification, locale domain.Locale, now time.Time) Notification {
	return Notification{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title(locale),
		Message:   n.Message(locale),
		Unread:    !n.IsRead,
		CreatedAt: n.CreatedAt,
		TimeAgo:   RelativeTime(n.CreatedAt, locale, now),
	}
}

// FormatAll formats every notification in order.
func FormatAll(ns []domain.Notification, locale domain.Locale, now time.Time) []Notification {
	out := make([]Notification, len(ns))
	for i := range ns {
		out[i] = Format(ns[i], locale, now)
	}
	return out
}

// RelativeTime buckets the whole minutes elapsed between created and now.
// Timestamps in the future read as "now".
func RelativeTime(created time.Time, locale domain.Locale, now time.Time) string {
	minutes := int64(now.Sub(created) / time.Minute)

	switch {
	case minutes < 1:
		return justNow(locale)
	case minutes < minutesPerHour:
		return ago(locale, minutes, unitMinute)
	case minutes < minutesPerDay:
		return ago(locale, minutes/minutesPerHour, unitHour)
	default:
		return ago(locale, minutes/minutesPerDay, unitDay)
	}
}

type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
)

var (
	arabicUnits  = [...]string{unitMinute: "دقيقة", unitHour: "ساعة", unitDay: "يوم"}
	englishUnits = [...]string{unitMinute: "minute", unitHour: "hour", unitDay: "day"}
)

func justNow(locale domain.Locale) string {
	if locale == domain.LocaleEnglish {
		return "just now"
	}
	return "الآن"
}

func ago(locale domain.Locale, n int64, u unit) string {
	if locale == domain.LocaleEnglish {
		name := englishUnits[u]
		if n != 1 {
			name += "s"
		}
		return fmt.Sprintf("%d %s ago", n, name)
	}
	return fmt.Sprintf("منذ %d %s", n, arabicUnits[u])
}
