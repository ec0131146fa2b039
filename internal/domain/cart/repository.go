// internal/domain/cart/repository.go
package cart

import (
	"context"

	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

var (
	ErrCartNotFound     = apperror.New(apperror.KindNotFound, "CART_NOT_FOUND", "cart not found")
	ErrItemNotFound     = apperror.New(apperror.KindNotFound, "CART_ITEM_NOT_FOUND", "cart item not found")
	ErrInvalidQuantity  = apperror.New(apperror.KindInvalidState, "INVALID_QUANTITY", "quantity must be at least 1")
	ErrEmptySelection   = apperror.New(apperror.KindInvalidState, "EMPTY_SELECTION", "no checked items in cart")
	ErrValidationFailed = apperror.New(apperror.KindInvalidState, "CART_VALIDATION_FAILED", "cart validation failed")
)

// Repository is the cart store
type Repository interface {
	GetOrCreate(ctx context.Context, userID uint) (*Cart, error)
	FindByUserID(ctx context.Context, userID uint) (*Cart, error)
	// FindByUserIDForUpdate locks the cart row until the surrounding transaction ends
	FindByUserIDForUpdate(ctx context.Context, userID uint) (*Cart, error)

	ListItems(ctx context.Context, cartID uint) ([]CartItem, error)
	ListChecked(ctx context.Context, cartID uint) ([]CartItem, error)
	GetItem(ctx context.Context, id uint) (*CartItem, error)
	FindItem(ctx context.Context, cartID, productID uint) (*CartItem, error)

	// SaveItem inserts the item when its ID is zero and updates it otherwise
	SaveItem(ctx context.Context, item *CartItem) error
	DeleteItems(ctx context.Context, ids []uint) error
	DeleteByCart(ctx context.Context, cartID uint) error
	SetAllChecked(ctx context.Context, cartID uint, checked bool) error
	CountItems(ctx context.Context, cartID uint) (int, error)
}
