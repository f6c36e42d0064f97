package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPreparing, OrderStatusDispatched, true},
		{OrderStatusDispatched, OrderStatusDelivered, true},
		{OrderStatusPreparing, OrderStatusDelivered, false},
		{OrderStatusDispatched, OrderStatusDispatched, false},
		{OrderStatusDelivered, OrderStatusDispatched, false},
		{OrderStatusDelivered, OrderStatusPreparing, false},
		{OrderStatusDispatched, OrderStatusPreparing, false},
		{OrderStatusPreparing, OrderStatus("CANCELLED"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusPreparing.IsTerminal())
	assert.False(t, OrderStatus("bogus").IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" dispatched ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusDispatched, got)

	_, err = ParseOrderStatus("SHIPPED")
	require.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod("cod")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCOD, got)
	assert.True(t, got.SettlesOnDelivery())
	assert.False(t, PaymentMethodOnline.SettlesOnDelivery())

	_, err = ParsePaymentMethod("cheque")
	require.Error(t, err)
}

func TestParseUserRole(t *testing.T) {
	got, err := ParseUserRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, UserRoleAdmin, got)

	_, err = ParseUserRole("root")
	require.Error(t, err)
}

func TestPaymentStatusSettlement(t *testing.T) {
	assert.True(t, PaymentStatusPaid.IsSettled())
	assert.False(t, PaymentStatusPending.IsSettled())
	assert.True(t, PaymentStatusPending.IsValid())
	assert.False(t, PaymentStatus("REFUNDED").IsValid())
	assert.Equal(t, "PAID", PaymentStatusPaid.String())
}

func TestOutboxEnumsValidity(t *testing.T) {
	assert.True(t, EventReviewAdded.IsValid())
	assert.False(t, OutboxEventType("order_cancelled").IsValid())
	assert.True(t, AggregateEnquiry.IsValid())
	assert.False(t, OutboxAggregateType("cart").IsValid())
}
