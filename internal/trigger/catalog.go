package trigger

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devllyservices-png/zedyoumplus2-sub000/internal/domain"
)

//go:embed copy.yaml
var defaultCopy []byte

// System copy keys.
const (
	KeyWelcome             = "welcome"
	KeyAccountSuspended    = "account_suspended"
	KeyAccountReactivated  = "account_reactivated"
	KeyMaintenance         = "maintenance"
	KeyPromotion           = "promotion"
	KeySecurityAlert       = "security_alert"
	KeyFeatureAnnouncement = "feature_announcement"
	KeyFeedbackRequest     = "feedback_request"
	KeyPaymentConfirmation = "payment_confirmation"
)

var systemKeys = []string{
	KeyWelcome, KeyAccountSuspended, KeyAccountReactivated, KeyMaintenance, KeyPromotion,
	KeySecurityAlert, KeyFeatureAnnouncement, KeyFeedbackRequest, KeyPaymentConfirmation,
}

// Text is one string in both languages. En may be empty.
type Text struct {
	Ar string `yaml:"ar"`
	En string `yaml:"en"`
}

// Copy is the title and body of one notification.
type Copy struct {
	Title   Text `yaml:"title"`
	Message Text `yaml:"message"`
}

// PartyCopy holds the copy sent to each side of an order.
type PartyCopy struct {
	Buyer  Copy `yaml:"buyer"`
	Seller Copy `yaml:"seller"`
}

// Catalog is every piece of copy the triggers send.
type Catalog struct {
	NewOrder        PartyCopy                        `yaml:"new_order"`
	OrderStatus     map[domain.OrderStatus]PartyCopy `yaml:"order_status"`
	PaymentReceived PartyCopy                        `yaml:"payment_received"`
	ReviewReceived  Copy                             `yaml:"review_received"`
	MessageReceived Copy                             `yaml:"message_received"`
	System          map[string]Copy                  `yaml:"system"`
}

// ParseCatalog decodes and checks a YAML catalog. Every order status and
// system key must carry Arabic copy.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse notification copy: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCopy)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) validate() error {
	var errs []error
	check := func(name string, cp Copy) {
		if strings.TrimSpace(cp.Title.Ar) == "" || strings.TrimSpace(cp.Message.Ar) == "" {
			errs = append(errs, fmt.Errorf("%s: arabic title and message are required", name))
		}
	}
	checkParties := func(name string, pc PartyCopy) {
		check(name+".buyer", pc.Buyer)
		check(name+".seller", pc.Seller)
	}

	checkParties("new_order", c.NewOrder)
	for _, st := range domain.OrderStatuses() {
		pc, ok := c.OrderStatus[st]
		if !ok {
			errs = append(errs, fmt.Errorf("order_status.%s is missing", st))
			continue
		}
		checkParties("order_status."+string(st), pc)
	}
	for st := range c.OrderStatus {
		if _, ok := domain.ParseOrderStatus(string(st)); !ok {
			errs = append(errs, fmt.Errorf("order_status.%s is not a known status", st))
		}
	}
	checkParties("payment_received", c.PaymentReceived)
	check("review_received", c.ReviewReceived)
	check("message_received", c.MessageReceived)
	for _, key := range systemKeys {
		cp, ok := c.System[key]
		if !ok {
			errs = append(errs, fmt.Errorf("system.%s is missing", key))
			continue
		}
		check("system."+key, cp)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid notification copy: %w", errors.Join(errs...))
	}
	return nil
}

// Render fills the placeholders in c and returns a notification for userID.
// vars are old/new pairs, as for strings.NewReplacer.
func (c Copy) Render(userID string, t domain.NotificationType, vars ...string) domain.NewNotification {
	r := strings.NewReplacer(vars...)
	n := domain.NewNotification{
		UserID:    userID,
		TitleAr:   r.Replace(c.Title.Ar),
		MessageAr: r.Replace(c.Message.Ar),
		Type:      t,
	}
	if c.Title.En != "" {
		en := r.Replace(c.Title.En)
		n.TitleEn = &en
	}
	if c.Message.En != "" {
		en := r.Replace(c.Message.En)
		n.MessageEn = &en
	}
	return n
}
