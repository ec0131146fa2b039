// internal/infrastructure/database/memory/store.go
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/domain/store"
)

// Store keeps catalog, carts and orders in process memory.
// Transactions run one at a time against a copy of the data that replaces the
// live data only when the callback succeeds.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type state struct {
	products  map[uint]product.Product
	carts     map[uint]cart.Cart
	cartItems map[uint]cart.CartItem
	orders    map[uint]order.Order
	history   []order.OrderStatusHistory

	productSeq   uint
	cartSeq      uint
	cartItemSeq  uint
	orderSeq     uint
	orderItemSeq uint
	historySeq   uint
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		st: &state{
			products:  make(map[uint]product.Product),
			carts:     make(map[uint]cart.Cart),
			cartItems: make(map[uint]cart.CartItem),
			orders:    make(map[uint]order.Order),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (st *state) clone() *state {
	c := *st
	c.products = make(map[uint]product.Product, len(st.products))
	for id, p := range st.products {
		c.products[id] = p
	}
	c.carts = make(map[uint]cart.Cart, len(st.carts))
	for id, ct := range st.carts {
		c.carts[id] = ct
	}
	c.cartItems = make(map[uint]cart.CartItem, len(st.cartItems))
	for id, item := range st.cartItems {
		c.cartItems[id] = item
	}
	c.orders = make(map[uint]order.Order, len(st.orders))
	for id, o := range st.orders {
		c.orders[id] = copyOrder(o)
	}
	c.history = slices.Clone(st.history)
	return &c
}

func copyOrder(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// handle routes a repository call either to a running transaction or,
// under the store lock, to the live data
type handle struct {
	store *Store
	tx    *state
}

func (h *handle) run(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return fn(h.store.st)
}

func (h *handle) now() time.Time {
	return h.store.now()
}

type repos struct {
	h *handle
}

func (r *repos) Products() product.Repository { return &productRepository{h: r.h} }
func (r *repos) Carts() cart.Repository       { return &cartRepository{h: r.h} }
func (r *repos) Orders() order.Repository     { return &orderRepository{h: r.h} }

// Products returns a repository working outside any transaction
func (s *Store) Products() product.Repository { return &productRepository{h: &handle{store: s}} }

// Carts returns a repository working outside any transaction
func (s *Store) Carts() cart.Repository { return &cartRepository{h: &handle{store: s}} }

// Orders returns a repository working outside any transaction
func (s *Store) Orders() order.Repository { return &orderRepository{h: &handle{store: s}} }

// WithinTx implements store.TxManager
func (s *Store) WithinTx(ctx context.Context, fn func(r store.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&repos{h: &handle{store: s, tx: work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = work
	return nil
}
