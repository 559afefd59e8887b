package domain

// OrderStatus is the status of a marketplace order as reported by the order
// flow. This service does not validate transitions between statuses.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses returns every known status.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderInProgress, OrderCompleted, OrderCancelled}
}

// ParseOrderStatus is the only conversion from a wire string. Unknown
// statuses report false.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return st, true
	}
	return "", false
}
