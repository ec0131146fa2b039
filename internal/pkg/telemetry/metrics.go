// internal/pkg/telemetry/metrics.go
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the business instruments of the order flow.
// A nil *Metrics records nothing.
type Metrics struct {
	checkouts     metric.Int64Counter
	orderAmount   metric.Float64Histogram
	cancellations metric.Int64Counter
	statusChanges metric.Int64Counter
}

// NewMetrics registers the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	checkouts, err := meter.Int64Counter("checkout_attempts_total",
		metric.WithDescription("Checkout attempts by result"))
	if err != nil {
		return nil, err
	}

	orderAmount, err := meter.Float64Histogram("checkout_order_amount",
		metric.WithDescription("Total amount of placed orders"))
	if err != nil {
		return nil, err
	}

	cancellations, err := meter.Int64Counter("order_cancellations_total",
		metric.WithDescription("Order cancellations by result"))
	if err != nil {
		return nil, err
	}

	statusChanges, err := meter.Int64Counter("order_status_changes_total",
		metric.WithDescription("Order status changes by target status"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checkouts:     checkouts,
		orderAmount:   orderAmount,
		cancellations: cancellations,
		statusChanges: statusChanges,
	}, nil
}

// RecordCheckout counts a checkout attempt and, on success, its amount
func (m *Metrics) RecordCheckout(ctx context.Context, result string, amount float64) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if result == "success" {
		m.orderAmount.Record(ctx, amount)
	}
}

// RecordCancellation counts a cancellation attempt
func (m *Metrics) RecordCancellation(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.cancellations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordStatusChange counts a successful status transition
func (m *Metrics) RecordStatusChange(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
