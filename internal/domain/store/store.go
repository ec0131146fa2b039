// internal/domain/store/store.go
package store

import (
	"context"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
)

// Repos gives access to every repository bound to the same transaction
type Repos interface {
	Products() product.Repository
	Carts() cart.Repository
	Orders() order.Repository
}

// TxManager runs fn in a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}

// Store is a storage backend usable both inside and outside transactions
type Store interface {
	Repos
	TxManager
}
