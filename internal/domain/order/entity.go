// internal/domain/order/entity.go
package order

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var statusDescriptions = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusConfirmed:  "Confirmed",
	OrderStatusProcessing: "Processing",
	OrderStatusShipped:    "Shipped",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCompleted:  "Completed",
	OrderStatusCancelled:  "Cancelled",
}

// transitions lists the forward moves of the lifecycle.
// Cancellation is only reachable from the first two states.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusCompleted},
}

// ParseStatus converts user input into an OrderStatus
func ParseStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := statusDescriptions[status]; !ok {
		return "", apperror.Wrapf(ErrInvalidStatus, "invalid order status: %q", value)
	}
	return status, nil
}

// Description returns a human readable label
func (s OrderStatus) Description() string {
	return statusDescriptions[s]
}

// CanTransitionTo reports whether the lifecycle allows moving to the target status
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	return lo.Contains(transitions[s], to)
}

// IsCancellable reports whether an order in this status may still be cancelled
func (s OrderStatus) IsCancellable() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// Order represents the order entity
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null;size:32" json:"order_number"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus     `gorm:"not null;size:20;index" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	ReceiverName    string          `gorm:"not null;size:100" json:"receiver_name"`
	ReceiverPhone   string          `gorm:"not null;size:20" json:"receiver_phone"`
	ReceiverAddress string          `gorm:"not null;size:500" json:"receiver_address"`
	Remark          string          `gorm:"size:1000" json:"remark"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a snapshot of a product line taken at checkout.
// Name, image and price never follow later catalog changes.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       uint            `gorm:"not null;index" json:"product_id"`
	ProductName     string          `gorm:"not null;size:255" json:"product_name"`
	ProductImageURL string          `gorm:"size:500" json:"product_image_url"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"size:20" json:"from_status"`
	Status     OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment    string      `gorm:"size:500" json:"comment"`
	CreatedBy  uint        `json:"created_by"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName methods
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status.IsCancellable()
}

// NewItem snapshots a product line. Subtotal is price times quantity.
func NewItem(productID uint, name, imageURL string, price decimal.Decimal, quantity int) OrderItem {
	return OrderItem{
		ProductID:       productID,
		ProductName:     name,
		ProductImageURL: imageURL,
		Price:           price,
		Quantity:        quantity,
		Subtotal:        price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// CalculateTotal returns the exact sum of the item subtotals
func (o *Order) CalculateTotal() decimal.Decimal {
	return lo.Reduce(o.Items, func(total decimal.Decimal, item OrderItem, _ int) decimal.Decimal {
		return total.Add(item.Subtotal)
	}, decimal.Zero)
}
