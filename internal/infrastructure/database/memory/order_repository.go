// internal/infrastructure/database/memory/order_repository.go
package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/samber/lo"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

type orderRepository struct {
	h *handle
}

func (r *orderRepository) Create(_ context.Context, o *order.Order) error {
	now := r.h.now()
	return r.h.run(func(st *state) error {
		for _, existing := range st.orders {
			if existing.OrderNumber == o.OrderNumber {
				return apperror.Wrapf(order.ErrNumberConflict, "order number %s already in use", o.OrderNumber)
			}
		}

		st.orderSeq++
		o.ID = st.orderSeq
		o.CreatedAt = now
		o.UpdatedAt = now
		for i := range o.Items {
			st.orderItemSeq++
			o.Items[i].ID = st.orderItemSeq
			o.Items[i].OrderID = o.ID
			o.Items[i].CreatedAt = now
		}

		st.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *orderRepository) FindByID(_ context.Context, id uint) (*order.Order, error) {
	return r.find(func(o order.Order) bool { return o.ID == id }, id)
}

func (r *orderRepository) FindForUpdate(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) FindByIDForUser(_ context.Context, id, userID uint) (*order.Order, error) {
	return r.find(func(o order.Order) bool { return o.ID == id && o.UserID == userID }, id)
}

func (r *orderRepository) FindByNumberForUser(_ context.Context, number string, userID uint) (*order.Order, error) {
	var result order.Order
	err := r.h.run(func(st *state) error {
		o, ok := lo.Find(lo.Values(st.orders), func(o order.Order) bool {
			return o.OrderNumber == number && o.UserID == userID
		})
		if !ok {
			return apperror.Wrapf(order.ErrNotFound, "order %s not found", number)
		}
		result = copyOrder(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *orderRepository) ListForUser(_ context.Context, userID uint, status *order.OrderStatus) ([]order.Order, error) {
	var orders []order.Order
	err := r.h.run(func(st *state) error {
		for _, o := range st.orders {
			if matchesUser(o, userID, status) {
				orders = append(orders, copyOrder(o))
			}
		}
		return nil
	})
	slices.SortFunc(orders, func(a, b order.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return orders, err
}

func (r *orderRepository) CountForUser(_ context.Context, userID uint, status *order.OrderStatus) (int64, error) {
	var count int
	err := r.h.run(func(st *state) error {
		count = lo.CountBy(lo.Values(st.orders), func(o order.Order) bool { return matchesUser(o, userID, status) })
		return nil
	})
	return int64(count), err
}

func (r *orderRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	var exists bool
	err := r.h.run(func(st *state) error {
		exists = lo.ContainsBy(lo.Values(st.orders), func(o order.Order) bool { return o.OrderNumber == number })
		return nil
	})
	return exists, err
}

func (r *orderRepository) UpdateStatus(_ context.Context, id uint, from, to order.OrderStatus) (bool, error) {
	var updated bool
	err := r.h.run(func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.Status != from {
			return nil
		}
		o.Status = to
		o.UpdatedAt = r.h.now()
		st.orders[id] = o
		updated = true
		return nil
	})
	return updated, err
}

func (r *orderRepository) AddHistory(_ context.Context, h *order.OrderStatusHistory) error {
	now := r.h.now()
	return r.h.run(func(st *state) error {
		st.historySeq++
		h.ID = st.historySeq
		h.CreatedAt = now
		st.history = append(st.history, *h)
		return nil
	})
}

func (r *orderRepository) ListHistory(_ context.Context, orderID uint) ([]order.OrderStatusHistory, error) {
	var history []order.OrderStatusHistory
	err := r.h.run(func(st *state) error {
		history = lo.Filter(st.history, func(h order.OrderStatusHistory, _ int) bool { return h.OrderID == orderID })
		return nil
	})
	return history, err
}

func (r *orderRepository) find(match func(order.Order) bool, id uint) (*order.Order, error) {
	var result order.Order
	err := r.h.run(func(st *state) error {
		o, ok := lo.Find(lo.Values(st.orders), match)
		if !ok {
			return apperror.Wrapf(order.ErrNotFound, "order %d not found", id)
		}
		result = copyOrder(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func matchesUser(o order.Order, userID uint, status *order.OrderStatus) bool {
	return o.UserID == userID && (status == nil || o.Status == *status)
}
