// internal/infrastructure/database/memory/product_repository.go
package memory

import (
	"context"
	"fmt"

	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

type productRepository struct {
	h *handle
}

func (r *productRepository) GetByID(_ context.Context, id uint) (*product.Product, error) {
	var found product.Product
	err := r.h.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return apperror.Wrapf(product.ErrNotFound, "product %d not found", id)
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *productRepository) GetByIDs(_ context.Context, ids []uint) (map[uint]*product.Product, error) {
	result := make(map[uint]*product.Product, len(ids))
	err := r.h.run(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				result[id] = &p
			}
		}
		return nil
	})
	return result, err
}

func (r *productRepository) Save(_ context.Context, p *product.Product) error {
	if p.Stock < 0 {
		return fmt.Errorf("product %d: stock must not be negative", p.ID)
	}

	now := r.h.now()
	return r.h.run(func(st *state) error {
		if p.ID == 0 {
			st.productSeq++
			p.ID = st.productSeq
		} else if p.ID > st.productSeq {
			st.productSeq = p.ID
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepository) DecreaseStockIfEnough(_ context.Context, id uint, qty int) (bool, error) {
	var ok bool
	err := r.h.run(func(st *state) error {
		p, found := st.products[id]
		if !found || p.IsDeleted() || p.Stock < qty {
			return nil
		}
		p.Stock -= qty
		p.UpdatedAt = r.h.now()
		st.products[id] = p
		ok = true
		return nil
	})
	return ok, err
}

func (r *productRepository) IncreaseStock(_ context.Context, id uint, qty int) error {
	return r.h.run(func(st *state) error {
		p, found := st.products[id]
		if !found {
			return nil
		}
		p.Stock += qty
		p.UpdatedAt = r.h.now()
		st.products[id] = p
		return nil
	})
}
