// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/domain/store"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
	"github.com/your-org/checkout-backend/internal/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("checkout")

// Service turns the checked lines of a cart into an order
type Service struct {
	tx        store.TxManager
	numbers   *order.NumberGenerator
	publisher order.EventPublisher
	metrics   *telemetry.Metrics
	logger    logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(tx store.TxManager, numbers *order.NumberGenerator, publisher order.EventPublisher, metrics *telemetry.Metrics, logger logrus.FieldLogger) *Service {
	return &Service{
		tx:        tx,
		numbers:   numbers,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// PlaceOrder converts every checked cart line of the user into one pending order.
// Stock decrements, the order rows and the removal of the consumed cart lines
// commit together. Any failure leaves catalog, cart and orders untouched.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *order.CreateOrderRequest) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.PlaceOrder",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))))
	defer span.End()

	var placed *order.Order
	err := s.tx.WithinTx(ctx, func(r store.Repos) error {
		o, err := s.placeOrder(ctx, r, userID, req)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordCheckout(ctx, apperror.KindOf(err).String(), 0)

		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"code":    apperror.CodeOf(err),
		}).WithError(err).Warn("Checkout failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", placed.OrderNumber))
	s.metrics.RecordCheckout(ctx, "success", placed.TotalAmount.InexactFloat64())

	s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
		"items":        len(placed.Items),
		"total_amount": placed.TotalAmount.StringFixed(2),
	}).Info("Order placed")

	s.publish(ctx, placed)
	return placed, nil
}

func (s *Service) placeOrder(ctx context.Context, r store.Repos, userID uint, req *order.CreateOrderRequest) (*order.Order, error) {
	c, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return nil, cart.ErrEmptySelection
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	items, err := r.Carts().ListChecked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checked items: %w", err)
	}
	if len(items) == 0 {
		return nil, cart.ErrEmptySelection
	}

	// validate every line before touching stock
	products := make(map[uint]*product.Product, len(items))
	for _, item := range items {
		p, err := r.Products().GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, apperror.Wrapf(product.ErrNotFound, "product %d not found", item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !p.IsPurchasable() {
			return nil, apperror.Wrapf(product.ErrUnavailable, "product %q is no longer available", p.Name)
		}
		if !p.HasStock(item.Quantity) {
			return nil, apperror.Wrapf(product.ErrInsufficientStock,
				"insufficient stock for %q: requested %d, available %d", p.Name, item.Quantity, p.Stock)
		}
		products[item.ProductID] = p
	}

	number, err := s.numbers.Generate(ctx, r.Orders())
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		OrderNumber:     number,
		UserID:          userID,
		Status:          order.OrderStatusPending,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
		Remark:          req.Remark,
		Items:           make([]order.OrderItem, 0, len(items)),
	}

	for _, item := range items {
		p := products[item.ProductID]
		o.Items = append(o.Items, order.NewItem(p.ID, p.Name, p.ImageURL, p.Price, item.Quantity))

		ok, err := r.Products().DecreaseStockIfEnough(ctx, p.ID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			// another checkout drained the stock after our read
			return nil, apperror.Wrapf(product.ErrInsufficientStock, "insufficient stock for %q", p.Name)
		}
	}
	o.TotalAmount = o.CalculateTotal()

	if err := r.Orders().Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.Orders().AddHistory(ctx, &order.OrderStatusHistory{
		OrderID:   o.ID,
		Status:    order.OrderStatusPending,
		Comment:   "Order created",
		CreatedBy: userID,
	}); err != nil {
		return nil, fmt.Errorf("failed to create status history: %w", err)
	}

	consumed := lo.Map(items, func(item cart.CartItem, _ int) uint { return item.ID })
	if err := r.Carts().DeleteItems(ctx, consumed); err != nil {
		return nil, fmt.Errorf("failed to remove checked out items: %w", err)
	}

	return o, nil
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, o.OrderNumber, order.NewEvent(order.EventOrderCreated, o)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"event":        order.EventOrderCreated,
		}).WithError(err).Error("Failed to publish order event")
	}
}
