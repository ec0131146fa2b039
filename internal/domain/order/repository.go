// internal/domain/order/repository.go
package order

import (
	"context"

	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(apperror.KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrInvalidStatus     = apperror.New(apperror.KindInvalidState, "INVALID_STATUS", "invalid order status")
	ErrInvalidTransition = apperror.New(apperror.KindInvalidState, "INVALID_TRANSITION", "order status transition not allowed")
	ErrNumberExhausted   = apperror.New(apperror.KindConflict, "ORDER_NUMBER_EXHAUSTED", "could not allocate an order number")
	ErrNumberConflict    = apperror.New(apperror.KindConflict, "ORDER_NUMBER_CONFLICT", "order number already in use")
)

// Repository is the order store.
// The ForUser lookups return ErrNotFound for orders owned by someone else.
type Repository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	// FindForUpdate loads an order and holds a row lock until the transaction ends
	FindForUpdate(ctx context.Context, id uint) (*Order, error)
	FindByIDForUser(ctx context.Context, id, userID uint) (*Order, error)
	FindByNumberForUser(ctx context.Context, number string, userID uint) (*Order, error)
	ListForUser(ctx context.Context, userID uint, status *OrderStatus) ([]Order, error)
	CountForUser(ctx context.Context, userID uint, status *OrderStatus) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// UpdateStatus moves the order from one status to another.
	// It returns false when the order was no longer in the from status.
	UpdateStatus(ctx context.Context, id uint, from, to OrderStatus) (bool, error)
	AddHistory(ctx context.Context, h *OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uint) ([]OrderStatusHistory, error)
}
