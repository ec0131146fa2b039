// internal/infrastructure/database/postgres/cart_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a gorm-backed cart repository
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepository{db: db}
}

// GetOrCreate inserts the cart if missing. ON CONFLICT keeps two first
// requests of the same user from failing on the unique user_id index.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uint) (*cart.Cart, error) {
	db := r.db.WithContext(ctx)

	c := cart.Cart{UserID: userID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	var existing cart.Cart
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &existing, nil
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.findByUser(r.db.WithContext(ctx), userID)
}

func (r *cartRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (*cart.Cart, error) {
	return r.findByUser(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *cartRepository) findByUser(query *gorm.DB, userID uint) (*cart.Cart, error) {
	var c cart.Cart
	err := query.Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrapf(cart.ErrCartNotFound, "cart of user %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &c, nil
}

func (r *cartRepository) ListItems(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

func (r *cartRepository) ListChecked(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND checked = ?", cartID, true).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list checked cart items: %w", err)
	}
	return items, nil
}

func (r *cartRepository) GetItem(ctx context.Context, id uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrapf(cart.ErrItemNotFound, "cart item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrapf(cart.ErrItemNotFound, "product %d is not in cart %d", productID, cartID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return &item, nil
}

func (r *cartRepository) SaveItem(ctx context.Context, item *cart.CartItem) error {
	db := r.db.WithContext(ctx)

	var err error
	if item.ID == 0 {
		err = db.Create(item).Error
	} else {
		err = db.Save(item).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate cart item for product %d: %w", item.ProductID, err)
		}
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteItems(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&cart.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteByCart(ctx context.Context, cartID uint) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&cart.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) SetAllChecked(ctx context.Context, cartID uint, checked bool) error {
	err := r.db.WithContext(ctx).
		Model(&cart.CartItem{}).
		Where("cart_id = ?", cartID).
		Update("checked", checked).Error
	if err != nil {
		return fmt.Errorf("failed to toggle cart items: %w", err)
	}
	return nil
}

func (r *cartRepository) CountItems(ctx context.Context, cartID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&cart.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return int(count), nil
}
