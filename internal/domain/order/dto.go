// internal/domain/order/dto.go
package order

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ReceiverName    string `json:"receiver_name" binding:"required,max=100"`
	ReceiverPhone   string `json:"receiver_phone" binding:"required,max=20"`
	ReceiverAddress string `json:"receiver_address" binding:"required,max=500"`
	Remark          string `json:"remark,omitempty" binding:"max=1000"`
}

// CancelOrderRequest carries an optional cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=500"`
}

// OrderItemResponse represents an order line in responses
type OrderItemResponse struct {
	ID              uint            `json:"id"`
	ProductID       uint            `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductImageURL string          `json:"product_image_url"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in responses
type OrderResponse struct {
	ID                uint                `json:"id"`
	OrderNumber       string              `json:"order_number"`
	UserID            uint                `json:"user_id"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	Status            OrderStatus         `json:"status"`
	StatusDescription string              `json:"status_description"`
	ReceiverName      string              `json:"receiver_name"`
	ReceiverPhone     string              `json:"receiver_phone"`
	ReceiverAddress   string              `json:"receiver_address"`
	Remark            string              `json:"remark,omitempty"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ToResponse converts an order for output
func ToResponse(o *Order) *OrderResponse {
	return &OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		TotalAmount:       o.TotalAmount,
		Status:            o.Status,
		StatusDescription: o.Status.Description(),
		ReceiverName:      o.ReceiverName,
		ReceiverPhone:     o.ReceiverPhone,
		ReceiverAddress:   o.ReceiverAddress,
		Remark:            o.Remark,
		Items: lo.Map(o.Items, func(item OrderItem, _ int) OrderItemResponse {
			return OrderItemResponse{
				ID:              item.ID,
				ProductID:       item.ProductID,
				ProductName:     item.ProductName,
				ProductImageURL: item.ProductImageURL,
				Price:           item.Price,
				Quantity:        item.Quantity,
				Subtotal:        item.Subtotal,
			}
		}),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// ToResponses converts a list of orders for output
func ToResponses(orders []Order) []*OrderResponse {
	return lo.Map(orders, func(o Order, _ int) *OrderResponse { return ToResponse(&o) })
}
