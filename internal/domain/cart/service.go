// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
)

// Service handles cart business logic
type Service struct {
	carts    Repository
	products product.Repository
	logger   logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(carts Repository, products product.Repository, logger logrus.FieldLogger) *Service {
	return &Service{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart retrieves the user's cart, creating it on first access
func (s *Service) GetCart(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return s.render(ctx, c)
}

// AddItem adds a product to the cart, merging with an existing line
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddToCartRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsPurchasable() {
		return nil, apperror.Wrapf(product.ErrUnavailable, "product %q is no longer available", p.Name)
	}
	if !p.HasStock(req.Quantity) {
		return nil, insufficientStock(p, req.Quantity)
	}

	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	item, err := s.carts.FindItem(ctx, c.ID, p.ID)
	switch {
	case err == nil:
		quantity := item.Quantity + req.Quantity
		if !p.HasStock(quantity) {
			return nil, insufficientStock(p, quantity)
		}
		item.Quantity = quantity
	case apperror.KindOf(err) == apperror.KindNotFound:
		item = &CartItem{
			CartID:    c.ID,
			ProductID: p.ID,
			Quantity:  req.Quantity,
			Checked:   true,
		}
	default:
		return nil, fmt.Errorf("failed to look up cart item: %w", err)
	}

	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save cart item: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": p.ID,
		"quantity":   req.Quantity,
	}).Info("Item added to cart")

	return s.render(ctx, c)
}

// UpdateItem sets the quantity of a cart line
func (s *Service) UpdateItem(ctx context.Context, userID, itemID uint, req *UpdateCartItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsPurchasable() {
		return nil, apperror.Wrapf(product.ErrUnavailable, "product %q is no longer available", p.Name)
	}
	if !p.HasStock(req.Quantity) {
		return nil, insufficientStock(p, req.Quantity)
	}

	item.Quantity = req.Quantity
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": req.Quantity,
	}).Info("Cart item updated")

	return s.render(ctx, c)
}

// RemoveItem deletes one cart line
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uint) (*CartResponse, error) {
	c, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteItems(ctx, []uint{item.ID}); err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID}).Info("Cart item removed")
	return s.render(ctx, c)
}

// ToggleItem flips the checked flag of one cart line
func (s *Service) ToggleItem(ctx context.Context, userID, itemID uint) (*CartResponse, error) {
	c, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item.Checked = !item.Checked
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to toggle cart item: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"item_id": itemID,
		"checked": item.Checked,
	}).Info("Cart item toggled")

	return s.render(ctx, c)
}

// ToggleAll sets the checked flag of every cart line
func (s *Service) ToggleAll(ctx context.Context, userID uint, checked bool) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	if err := s.carts.SetAllChecked(ctx, c.ID, checked); err != nil {
		return nil, fmt.Errorf("failed to toggle cart items: %w", err)
	}

	return s.render(ctx, c)
}

// Clear removes every line of the user's cart
func (s *Service) Clear(ctx context.Context, userID uint) error {
	c, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil
		}
		return fmt.Errorf("failed to retrieve cart: %w", err)
	}

	if err := s.carts.DeleteByCart(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.logger.WithField("user_id", userID).Info("Cart cleared")
	return nil
}

// BatchRemove deletes several cart lines. Nothing is deleted when any id is unknown.
func (s *Service) BatchRemove(ctx context.Context, userID uint, itemIDs []uint) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	ids := lo.Uniq(itemIDs)
	var missing []uint
	for _, id := range ids {
		item, err := s.carts.GetItem(ctx, id)
		if err != nil {
			if apperror.KindOf(err) != apperror.KindNotFound {
				return nil, fmt.Errorf("failed to look up cart item: %w", err)
			}
			missing = append(missing, id)
			continue
		}
		if item.CartID != c.ID {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.Wrapf(ErrItemNotFound, "cart items not found: %v", missing)
	}

	if err := s.carts.DeleteItems(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to remove cart items: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "count": len(ids)}).Info("Cart items removed")
	return s.render(ctx, c)
}

// RemoveChecked deletes every checked cart line
func (s *Service) RemoveChecked(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	checked, err := s.carts.ListChecked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checked items: %w", err)
	}

	if len(checked) > 0 {
		ids := lo.Map(checked, func(item CartItem, _ int) uint { return item.ID })
		if err := s.carts.DeleteItems(ctx, ids); err != nil {
			return nil, fmt.Errorf("failed to remove checked items: %w", err)
		}
		s.logger.WithFields(logrus.Fields{"user_id": userID, "count": len(ids)}).Info("Checked cart items removed")
	}

	return s.render(ctx, c)
}

// GetChecked returns a cart view limited to checked lines
func (s *Service) GetChecked(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	checked, err := s.carts.ListChecked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checked items: %w", err)
	}

	return s.buildResponse(ctx, c, checked)
}

// CountItems returns the number of lines in the user's cart
func (s *Service) CountItems(ctx context.Context, userID uint) (int, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return s.carts.CountItems(ctx, c.ID)
}

// ownedItem loads a cart line and checks it belongs to the user's cart.
// Lines of other carts are reported as not found.
func (s *Service) ownedItem(ctx context.Context, userID, itemID uint) (*Cart, *CartItem, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	item, err := s.carts.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.CartID != c.ID {
		return nil, nil, apperror.Wrapf(ErrItemNotFound, "cart item %d not found", itemID)
	}
	return c, item, nil
}

// render builds the response for every line of the cart
func (s *Service) render(ctx context.Context, c *Cart) (*CartResponse, error) {
	items, err := s.carts.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return s.buildResponse(ctx, c, items)
}

func (s *Service) buildResponse(ctx context.Context, c *Cart, items []CartItem) (*CartResponse, error) {
	productIDs := lo.Uniq(lo.Map(items, func(item CartItem, _ int) uint { return item.ProductID }))
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	resp := &CartResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       make([]CartItemResponse, 0, len(items)),
		TotalItems:  len(items),
		TotalAmount: decimal.Zero,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	for _, item := range items {
		line := buildItemResponse(item, products[item.ProductID])
		if line.Checked && !line.ProductDeleted {
			resp.TotalAmount = resp.TotalAmount.Add(line.Subtotal)
		}
		resp.Items = append(resp.Items, line)
	}

	return resp, nil
}

func buildItemResponse(item CartItem, p *product.Product) CartItemResponse {
	line := CartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Checked:   item.Checked,
		Subtotal:  decimal.Zero,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}

	if p == nil {
		line.ProductDeleted = true
		line.ErrorMessage = "product no longer exists"
		return line
	}

	line.ProductName = p.Name
	line.ProductDescription = p.Description
	line.ProductPrice = p.Price
	line.ProductImageURL = p.ImageURL
	line.ProductStock = p.Stock
	line.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	line.ProductDeleted = !p.IsPurchasable()
	line.StockInsufficient = !p.HasStock(item.Quantity)

	switch {
	case line.ProductDeleted:
		line.ErrorMessage = "product is no longer available"
	case line.StockInsufficient:
		line.ErrorMessage = fmt.Sprintf("insufficient stock (%d left)", p.Stock)
	}

	return line
}

func insufficientStock(p *product.Product, requested int) error {
	return apperror.Wrapf(product.ErrInsufficientStock,
		"insufficient stock for %q: requested %d, available %d", p.Name, requested, p.Stock)
}
