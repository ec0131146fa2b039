// internal/infrastructure/database/memory/cart_repository.go
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

type cartRepository struct {
	h *handle
}

func (r *cartRepository) GetOrCreate(_ context.Context, userID uint) (*cart.Cart, error) {
	var result cart.Cart
	err := r.h.run(func(st *state) error {
		if c, ok := findCart(st, userID); ok {
			result = c
			return nil
		}
		now := r.h.now()
		st.cartSeq++
		result = cart.Cart{ID: st.cartSeq, UserID: userID, CreatedAt: now, UpdatedAt: now}
		st.carts[result.ID] = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *cartRepository) FindByUserID(_ context.Context, userID uint) (*cart.Cart, error) {
	var result cart.Cart
	err := r.h.run(func(st *state) error {
		c, ok := findCart(st, userID)
		if !ok {
			return apperror.Wrapf(cart.ErrCartNotFound, "cart of user %d not found", userID)
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByUserIDForUpdate needs no row lock here since transactions are serialized.
func (r *cartRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *cartRepository) ListItems(_ context.Context, cartID uint) ([]cart.CartItem, error) {
	return r.list(func(item cart.CartItem) bool { return item.CartID == cartID })
}

func (r *cartRepository) ListChecked(_ context.Context, cartID uint) ([]cart.CartItem, error) {
	return r.list(func(item cart.CartItem) bool { return item.CartID == cartID && item.Checked })
}

func (r *cartRepository) GetItem(_ context.Context, id uint) (*cart.CartItem, error) {
	var result cart.CartItem
	err := r.h.run(func(st *state) error {
		item, ok := st.cartItems[id]
		if !ok {
			return apperror.Wrapf(cart.ErrItemNotFound, "cart item %d not found", id)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *cartRepository) FindItem(_ context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var result cart.CartItem
	err := r.h.run(func(st *state) error {
		item, ok := lo.Find(lo.Values(st.cartItems), func(item cart.CartItem) bool {
			return item.CartID == cartID && item.ProductID == productID
		})
		if !ok {
			return apperror.Wrapf(cart.ErrItemNotFound, "product %d is not in cart %d", productID, cartID)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *cartRepository) SaveItem(_ context.Context, item *cart.CartItem) error {
	now := r.h.now()
	return r.h.run(func(st *state) error {
		for _, existing := range st.cartItems {
			if existing.ID != item.ID && existing.CartID == item.CartID && existing.ProductID == item.ProductID {
				return fmt.Errorf("duplicate cart item for product %d", item.ProductID)
			}
		}
		if item.ID == 0 {
			st.cartItemSeq++
			item.ID = st.cartItemSeq
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		st.cartItems[item.ID] = *item
		return nil
	})
}

func (r *cartRepository) DeleteItems(_ context.Context, ids []uint) error {
	return r.h.run(func(st *state) error {
		for _, id := range ids {
			delete(st.cartItems, id)
		}
		return nil
	})
}

func (r *cartRepository) DeleteByCart(_ context.Context, cartID uint) error {
	return r.h.run(func(st *state) error {
		for id, item := range st.cartItems {
			if item.CartID == cartID {
				delete(st.cartItems, id)
			}
		}
		return nil
	})
}

func (r *cartRepository) SetAllChecked(_ context.Context, cartID uint, checked bool) error {
	now := r.h.now()
	return r.h.run(func(st *state) error {
		for id, item := range st.cartItems {
			if item.CartID == cartID {
				item.Checked = checked
				item.UpdatedAt = now
				st.cartItems[id] = item
			}
		}
		return nil
	})
}

func (r *cartRepository) CountItems(_ context.Context, cartID uint) (int, error) {
	var count int
	err := r.h.run(func(st *state) error {
		count = lo.CountBy(lo.Values(st.cartItems), func(item cart.CartItem) bool { return item.CartID == cartID })
		return nil
	})
	return count, err
}

func (r *cartRepository) list(match func(cart.CartItem) bool) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := r.h.run(func(st *state) error {
		items = lo.Filter(lo.Values(st.cartItems), func(item cart.CartItem, _ int) bool { return match(item) })
		return nil
	})
	slices.SortFunc(items, func(a, b cart.CartItem) int { return cmp.Compare(a.ID, b.ID) })
	return items, err
}

func findCart(st *state, userID uint) (cart.Cart, bool) {
	return lo.Find(lo.Values(st.carts), func(c cart.Cart) bool { return c.UserID == userID })
}
