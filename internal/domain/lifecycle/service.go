// internal/domain/lifecycle/service.go
package lifecycle

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/store"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
	"github.com/your-org/checkout-backend/internal/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lifecycle")

// Service enforces the order state machine and owns order reads
type Service struct {
	tx        store.TxManager
	orders    order.Repository
	publisher order.EventPublisher
	metrics   *telemetry.Metrics
	logger    logrus.FieldLogger
}

// NewService creates a new order lifecycle service
func NewService(tx store.TxManager, orders order.Repository, publisher order.EventPublisher, metrics *telemetry.Metrics, logger logrus.FieldLogger) *Service {
	return &Service{
		tx:        tx,
		orders:    orders,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get returns one of the user's orders
func (s *Service) Get(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	return s.orders.FindByIDForUser(ctx, orderID, userID)
}

// GetByNumber returns one of the user's orders by its order number
func (s *Service) GetByNumber(ctx context.Context, userID uint, number string) (*order.Order, error) {
	return s.orders.FindByNumberForUser(ctx, number, userID)
}

// List returns the user's orders, newest first. A nil status means all.
func (s *Service) List(ctx context.Context, userID uint, status *order.OrderStatus) ([]order.Order, error) {
	orders, err := s.orders.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Count returns how many orders the user has. A nil status means all.
func (s *Service) Count(ctx context.Context, userID uint, status *order.OrderStatus) (int64, error) {
	count, err := s.orders.CountForUser(ctx, userID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// History returns the status changes of one of the user's orders
func (s *Service) History(ctx context.Context, userID, orderID uint) ([]order.OrderStatusHistory, error) {
	if _, err := s.orders.FindByIDForUser(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.orders.ListHistory(ctx, orderID)
}

// Cancel cancels one of the user's orders and puts its stock back.
// Only pending and confirmed orders can be cancelled.
func (s *Service) Cancel(ctx context.Context, userID, orderID uint, reason string) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.Cancel", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("order.id", int64(orderID)),
	))
	defer span.End()

	var cancelled *order.Order
	err := s.tx.WithinTx(ctx, func(r store.Repos) error {
		o, err := cancelInTx(ctx, r, orderID, &userID, cancelComment(reason), userID)
		if err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordCancellation(ctx, apperror.KindOf(err).String())
		return nil, err
	}

	s.metrics.RecordCancellation(ctx, "success")
	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"order_id":     cancelled.ID,
		"order_number": cancelled.OrderNumber,
	}).Info("Order cancelled")

	s.publish(ctx, order.EventOrderCancelled, cancelled)
	return cancelled, nil
}

// UpdateStatus moves an order along the lifecycle on behalf of an operator.
// Moving to CANCELLED takes the same path as a customer cancellation, stock restore included.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, to order.OrderStatus, comment string, actorID uint) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", int64(orderID)),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	var updated *order.Order
	err := s.tx.WithinTx(ctx, func(r store.Repos) error {
		var (
			o   *order.Order
			err error
		)
		if to == order.OrderStatusCancelled {
			o, err = cancelInTx(ctx, r, orderID, nil, cancelComment(comment), actorID)
		} else {
			o, err = advanceInTx(ctx, r, orderID, to, comment, actorID)
		}
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordStatusChange(ctx, string(to))
	s.logger.WithFields(logrus.Fields{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"status":       updated.Status,
		"actor_id":     actorID,
	}).Info("Order status updated")

	eventType := order.EventOrderStatusChanged
	if to == order.OrderStatusCancelled {
		eventType = order.EventOrderCancelled
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

// cancelInTx restores stock for every item and marks the order cancelled.
// A non-nil owner restricts the operation to that user's orders.
func cancelInTx(ctx context.Context, r store.Repos, orderID uint, owner *uint, comment string, actorID uint) (*order.Order, error) {
	o, err := r.Orders().FindForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if owner != nil && o.UserID != *owner {
		return nil, apperror.Wrapf(order.ErrNotFound, "order %d not found", orderID)
	}
	if !o.CanBeCancelled() {
		return nil, apperror.Wrapf(order.ErrInvalidTransition,
			"order %s cannot be cancelled in status %s", o.OrderNumber, o.Status)
	}

	for _, item := range o.Items {
		if err := r.Products().IncreaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err := transition(ctx, r, o, order.OrderStatusCancelled, comment, actorID); err != nil {
		return nil, err
	}
	return o, nil
}

func advanceInTx(ctx context.Context, r store.Repos, orderID uint, to order.OrderStatus, comment string, actorID uint) (*order.Order, error) {
	o, err := r.Orders().FindForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, apperror.Wrapf(order.ErrInvalidTransition,
			"order %s cannot move from %s to %s", o.OrderNumber, o.Status, to)
	}

	if err := transition(ctx, r, o, to, comment, actorID); err != nil {
		return nil, err
	}
	return o, nil
}

// transition writes the new status only if nobody changed it meanwhile
func transition(ctx context.Context, r store.Repos, o *order.Order, to order.OrderStatus, comment string, actorID uint) error {
	from := o.Status

	ok, err := r.Orders().UpdateStatus(ctx, o.ID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		return apperror.Wrapf(order.ErrInvalidTransition, "order %s changed status concurrently", o.OrderNumber)
	}

	if err := r.Orders().AddHistory(ctx, &order.OrderStatusHistory{
		OrderID:    o.ID,
		FromStatus: from,
		Status:     to,
		Comment:    comment,
		CreatedBy:  actorID,
	}); err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}

	o.Status = to
	return nil
}

func cancelComment(reason string) string {
	if reason == "" {
		return "Order cancelled"
	}
	return fmt.Sprintf("Order cancelled: %s", reason)
}

func (s *Service) publish(ctx context.Context, eventType string, o *order.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, o.OrderNumber, order.NewEvent(eventType, o)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"event":        eventType,
		}).WithError(err).Error("Failed to publish order event")
	}
}
