// internal/domain/cart/validator.go
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/product"
)

// ProblemCode identifies what was wrong with a cart line
type ProblemCode string

const (
	ProblemProductUnavailable ProblemCode = "PRODUCT_UNAVAILABLE"
	ProblemInsufficientStock  ProblemCode = "INSUFFICIENT_STOCK"
)

// Problem describes one correction applied to a cart line
type Problem struct {
	ItemID    uint        `json:"item_id"`
	ProductID uint        `json:"product_id"`
	Code      ProblemCode `json:"code"`
	Message   string      `json:"message"`
}

// ValidationError is returned when Validate had to correct the cart.
// Cart holds the state after the corrections were saved.
type ValidationError struct {
	Problems []Problem
	Cart     *CartResponse
}

func (e *ValidationError) Error() string {
	messages := lo.Map(e.Problems, func(p Problem, _ int) string { return p.Message })
	return "cart validation failed: " + strings.Join(messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Validate reconciles the cart with the live catalog.
// Unavailable products are unchecked and over-stock quantities are clamped to
// what is left (or unchecked when nothing is left). Corrections are saved before
// a *ValidationError is returned, so a second call reports nothing new.
func (s *Service) Validate(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	items, err := s.carts.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	productIDs := lo.Uniq(lo.Map(items, func(item CartItem, _ int) uint { return item.ProductID }))
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var problems []Problem
	for i := range items {
		item := &items[i]
		problem, changed := reconcile(item, products[item.ProductID])
		if !changed {
			continue
		}
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to save corrected cart item: %w", err)
		}
		problems = append(problems, problem)
	}

	resp, err := s.buildResponse(ctx, c, items)
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"problems": len(problems),
		}).Warn("Cart validation corrected items")
		return resp, &ValidationError{Problems: problems, Cart: resp}
	}

	s.logger.WithField("user_id", userID).Debug("Cart validation passed")
	return resp, nil
}

// reconcile applies the correction for one line in place and reports it
func reconcile(item *CartItem, p *product.Product) (Problem, bool) {
	problem := Problem{ItemID: item.ID, ProductID: item.ProductID}

	switch {
	case p == nil || !p.IsPurchasable():
		if !item.Checked {
			return problem, false
		}
		item.Checked = false
		problem.Code = ProblemProductUnavailable
		if p == nil {
			problem.Message = fmt.Sprintf("product %d no longer exists", item.ProductID)
		} else {
			problem.Message = fmt.Sprintf("product %q is no longer available", p.Name)
		}
		return problem, true

	case !p.HasStock(item.Quantity):
		problem.Code = ProblemInsufficientStock
		problem.Message = fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
			p.Name, item.Quantity, p.Stock)
		if p.Stock > 0 {
			item.Quantity = p.Stock
			return problem, true
		}
		if !item.Checked {
			return problem, false
		}
		item.Checked = false
		return problem, true
	}

	return problem, false
}
