// internal/infrastructure/database/postgres/tx_manager.go
package postgres

import (
	"context"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/domain/store"
	"gorm.io/gorm"
)

// Store hands out gorm repositories, inside or outside a transaction
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on top of a gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type txRepos struct {
	products product.Repository
	carts    cart.Repository
	orders   order.Repository
}

func (r *txRepos) Products() product.Repository { return r.products }
func (r *txRepos) Carts() cart.Repository       { return r.carts }
func (r *txRepos) Orders() order.Repository     { return r.orders }

// Products returns the catalog repository
func (s *Store) Products() product.Repository { return NewProductRepository(s.db) }

// Carts returns the cart repository
func (s *Store) Carts() cart.Repository { return NewCartRepository(s.db) }

// Orders returns the order repository
func (s *Store) Orders() order.Repository { return NewOrderRepository(s.db) }

// WithinTx runs fn in a database transaction.
// Returning an error from fn rolls back every write made through r.
func (s *Store) WithinTx(ctx context.Context, fn func(r store.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepos{
			products: NewProductRepository(tx),
			carts:    NewCartRepository(tx),
			orders:   NewOrderRepository(tx),
		})
	})
}
