// internal/domain/cart/dto.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemResponse represents a cart item with live product details
type CartItemResponse struct {
	ID                 uint            `json:"id"`
	ProductID          uint            `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	ProductPrice       decimal.Decimal `json:"product_price"`
	ProductImageURL    string          `json:"product_image_url"`
	ProductStock       int             `json:"product_stock"`
	Quantity           int             `json:"quantity"`
	Checked            bool            `json:"checked"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ProductDeleted     bool            `json:"product_deleted"`
	StockInsufficient  bool            `json:"stock_insufficient"`
	ErrorMessage       string          `json:"error_message,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CartResponse represents a shopping cart with items and summary
type CartResponse struct {
	ID          uint               `json:"id"`
	UserID      uint               `json:"user_id"`
	Items       []CartItemResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount decimal.Decimal    `json:"total_amount"` // checked items only
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ToggleAllRequest selects or deselects every item
type ToggleAllRequest struct {
	Checked *bool `json:"checked" binding:"required"`
}

// BatchRemoveRequest lists the cart items to delete
type BatchRemoveRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}
