package trigger

import (
	"context"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
)

func (t *Triggers) sendSystem(ctx context.Context, userID, key string, vars ...string) error {
	n := t.catalog.System[key].Render(userID, domain.TypeSystem, vars...)
	return t.notifyOne(ctx, EventSystemNotification, n)
}

// SendWelcome greets a newly registered user.
func (t *Triggers) SendWelcome(ctx context.Context, userID, name string) error {
	return t.sendSystem(ctx, userID, KeyWelcome, "{name}", name)
}

func (t *Triggers) SendAccountSuspended(ctx context.Context, userID, reason string) error {
	return t.sendSystem(ctx, userID, KeyAccountSuspended, "{reason}", reason)
}

func (t *Triggers) SendAccountReactivated(ctx context.Context, userID string) error {
	return t.sendSystem(ctx, userID, KeyAccountReactivated)
}

// SendMaintenanceNotice announces a maintenance window, given as display
// text such as "Friday 02:00-04:00 UTC".
func (t *Triggers) SendMaintenanceNotice(ctx context.Context, userID, window string) error {
	return t.sendSystem(ctx, userID, KeyMaintenance, "{window}", window)
}

func (t *Triggers) SendPromotion(ctx context.Context, userID, offer string) error {
	return t.sendSystem(ctx, userID, KeyPromotion, "{offer}", offer)
}

// SendSecurityAlert reports account activity the user should verify.
func (t *Triggers) SendSecurityAlert(ctx context.Context, userID, activity string) error {
	return t.sendSystem(ctx, userID, KeySecurityAlert, "{activity}", activity)
}

func (t *Triggers) SendFeatureAnnouncement(ctx context.Context, userID, feature string) error {
	return t.sendSystem(ctx, userID, KeyFeatureAnnouncement, "{feature}", feature)
}

// SendFeedbackRequest asks a buyer to rate a finished service.
func (t *Triggers) SendFeedbackRequest(ctx context.Context, userID, serviceTitle string) error {
	return t.sendSystem(ctx, userID, KeyFeedbackRequest, "{service}", serviceTitle)
}

func (t *Triggers) SendPaymentConfirmation(ctx context.Context, userID string, amount float64) error {
	return t.sendSystem(ctx, userID, KeyPaymentConfirmation, "{amount}", formatAmount(amount))
}
