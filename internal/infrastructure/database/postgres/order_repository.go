// internal/infrastructure/database/postgres/order_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a gorm-backed order repository
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Create(o).Error
	if isUniqueViolation(err) {
		return apperror.Wrapf(order.ErrNumberConflict, "order number %s already in use", o.OrderNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(r.withItems(ctx).Where("id = ?", id), fmt.Sprint(id))
}

func (r *orderRepository) FindForUpdate(ctx context.Context, id uint) (*order.Order, error) {
	query := r.withItems(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id)
	return r.first(query, fmt.Sprint(id))
}

func (r *orderRepository) FindByIDForUser(ctx context.Context, id, userID uint) (*order.Order, error) {
	return r.first(r.withItems(ctx).Where("id = ? AND user_id = ?", id, userID), fmt.Sprint(id))
}

func (r *orderRepository) FindByNumberForUser(ctx context.Context, number string, userID uint) (*order.Order, error) {
	return r.first(r.withItems(ctx).Where("order_number = ? AND user_id = ?", number, userID), number)
}

func (r *orderRepository) ListForUser(ctx context.Context, userID uint, status *order.OrderStatus) ([]order.Order, error) {
	query := r.withItems(ctx).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var orders []order.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) CountForUser(ctx context.Context, userID uint, status *order.OrderStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return count > 0, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to order.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to add order status history: %w", err)
	}
	return nil
}

func (r *orderRepository) ListHistory(ctx context.Context, orderID uint) ([]order.OrderStatusHistory, error) {
	var history []order.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list order status history: %w", err)
	}
	return history, nil
}

func (r *orderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

func (r *orderRepository) first(query *gorm.DB, ref string) (*order.Order, error) {
	var o order.Order
	err := query.First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrapf(order.ErrNotFound, "order %s not found", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}
