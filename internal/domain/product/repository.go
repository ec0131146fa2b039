// internal/domain/product/repository.go
package product

import (
	"context"

	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(apperror.KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrUnavailable       = apperror.New(apperror.KindInvalidState, "PRODUCT_UNAVAILABLE", "product is no longer available")
	ErrInsufficientStock = apperror.New(apperror.KindResourceExhausted, "INSUFFICIENT_STOCK", "insufficient stock")
)

// Repository is the catalog store used by cart and checkout.
// Lookups include soft-deleted products so callers can tell "gone" from "withdrawn".
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error)
	Save(ctx context.Context, p *Product) error
	// DecreaseStockIfEnough subtracts qty only when at least qty units remain.
	// It returns false without error when the stock was too low.
	DecreaseStockIfEnough(ctx context.Context, id uint, qty int) (bool, error)
	IncreaseStock(ctx context.Context, id uint, qty int) error
}
