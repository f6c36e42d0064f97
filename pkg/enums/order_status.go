package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks where an order sits on its delivery timeline.
type OrderStatus string

const (
	OrderStatusPreparing  OrderStatus = "PREPARING"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPreparing,
	OrderStatusDispatched,
	OrderStatusDelivered,
}

// orderStatusNext holds the single forward step allowed from each status.
var orderStatusNext = map[OrderStatus]OrderStatus{
	OrderStatusPreparing:  OrderStatusDispatched,
	OrderStatusDispatched: OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderStatusNext[s]
	return s.IsValid() && !ok
}

// CanTransitionTo reports whether moving from s to next is a single forward step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	step, ok := orderStatusNext[s]
	return ok && step == next
}

// OrderStatuses returns every status in timeline order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching ignores case.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
