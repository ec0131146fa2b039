// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusCompleted, true},

		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_CanBeCancelled(t *testing.T) {
	for status := range statusDescriptions {
		o := &Order{Status: status}
		want := status == OrderStatusPending || status == OrderStatusConfirmed
		assert.Equal(t, want, o.CanBeCancelled(), status)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)
	assert.Equal(t, "Shipped", status.Description())

	_, err = ParseStatus("LOST")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCalculateTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		NewItem(1, "A", "", decimal.RequireFromString("100.00"), 2),
		NewItem(2, "B", "", decimal.RequireFromString("200.00"), 1),
		NewItem(3, "C", "", decimal.RequireFromString("0.10"), 3),
	}}

	assert.True(t, o.Items[0].Subtotal.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, "400.30", o.CalculateTotal().StringFixed(2))
}
