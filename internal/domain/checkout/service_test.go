// internal/domain/checkout/service_test.go
package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/checkout"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/memory"
	"github.com/your-org/checkout-backend/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(order.Event))
	return p.err
}

type fixture struct {
	store     *memory.Store
	carts     *cart.Service
	checkout  *checkout.Service
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	pub := &recordingPublisher{}
	numbers := order.NewNumberGenerator(order.DefaultNumberPrefix, order.DefaultNumberMaxAttempts, order.NewLocalReserver(time.Minute))
	return &fixture{
		store:     st,
		carts:     cart.NewService(st.Carts(), st.Products(), logger.Discard()),
		checkout:  checkout.NewService(st, numbers, pub, nil, logger.Discard()),
		publisher: pub,
	}
}

func (f *fixture) product(t *testing.T, price string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		CatalogNumber: gofakeit.UUID(),
		Name:          gofakeit.ProductName(),
		ImageURL:      gofakeit.URL(),
		Price:         decimal.RequireFromString(price),
		Stock:         stock,
		Status:        product.ProductStatusOpen,
	}
	require.NoError(t, f.store.Products().Save(context.Background(), p))
	return p
}

func (f *fixture) add(t *testing.T, userID, productID uint, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, &cart.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func receiver() *order.CreateOrderRequest {
	return &order.CreateOrderRequest{
		ReceiverName:    gofakeit.Name(),
		ReceiverPhone:   gofakeit.Phone(),
		ReceiverAddress: gofakeit.Address().Address,
	}
}

func TestPlaceOrder_CheckedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const userID uint = 1

	a := f.product(t, "100.00", 10)
	b := f.product(t, "200.00", 5)
	c := f.product(t, "50.00", 5)
	f.add(t, userID, a.ID, 2)
	f.add(t, userID, b.ID, 1)
	f.add(t, userID, c.ID, 1)

	resp, err := f.carts.GetCart(ctx, userID)
	require.NoError(t, err)
	_, err = f.carts.ToggleItem(ctx, userID, resp.Items[2].ID)
	require.NoError(t, err)

	o, err := f.checkout.PlaceOrder(ctx, userID, receiver())
	require.NoError(t, err)

	assert.NotZero(t, o.ID)
	assert.Regexp(t, `^ORD\d{18}$`, o.OrderNumber)
	assert.Equal(t, order.OrderStatusPending, o.Status)
	assert.Equal(t, "400.00", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "200.00", o.Items[0].Subtotal.StringFixed(2))

	assert.Equal(t, 8, f.stock(t, a.ID))
	assert.Equal(t, 4, f.stock(t, b.ID))
	assert.Equal(t, 5, f.stock(t, c.ID))

	left, err := f.carts.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, left.Items, 1)
	assert.Equal(t, c.ID, left.Items[0].ProductID)

	history, err := f.store.Orders().ListHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.OrderStatusPending, history[0].Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, order.EventOrderCreated, f.publisher.events[0].Type)
	assert.Equal(t, o.OrderNumber, f.publisher.events[0].OrderNumber)
}

func TestPlaceOrder_EmptySelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.PlaceOrder(ctx, 1, receiver())
	assert.ErrorIs(t, err, cart.ErrEmptySelection)

	p := f.product(t, "1.00", 1)
	f.add(t, 1, p.ID, 1)
	_, err = f.carts.ToggleAll(ctx, 1, false)
	require.NoError(t, err)

	_, err = f.checkout.PlaceOrder(ctx, 1, receiver())
	assert.ErrorIs(t, err, cart.ErrEmptySelection)
}

func TestPlaceOrder_FailureChangesNothing(t *testing.T) {
	tests := []struct {
		name  string
		spoil func(p *product.Product)
		want  error
	}{
		{"stock dropped", func(p *product.Product) { p.Stock = 1 }, product.ErrInsufficientStock},
		{"product closed", func(p *product.Product) { p.Status = product.ProductStatusClosed }, product.ErrUnavailable},
		{"product deleted", func(p *product.Product) { p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true} }, product.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			const userID uint = 3

			good := f.product(t, "10.00", 10)
			bad := f.product(t, "20.00", 10)
			f.add(t, userID, good.ID, 2)
			f.add(t, userID, bad.ID, 2)

			tt.spoil(bad)
			require.NoError(t, f.store.Products().Save(ctx, bad))

			_, err := f.checkout.PlaceOrder(ctx, userID, receiver())
			assert.ErrorIs(t, err, tt.want)

			assert.Equal(t, 10, f.stock(t, good.ID))
			left, err := f.carts.GetCart(ctx, userID)
			require.NoError(t, err)
			require.Len(t, left.Items, 2)
			for _, line := range left.Items {
				assert.True(t, line.Checked, "product %d", line.ProductID)
				assert.Equal(t, 2, line.Quantity)
			}

			orders, err := f.store.Orders().CountForUser(ctx, userID, nil)
			require.NoError(t, err)
			assert.Zero(t, orders)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestPlaceOrder_MissingProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const userID uint = 4

	p := f.product(t, "5.00", 3)
	f.add(t, userID, p.ID, 1)

	c, err := f.store.Carts().FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.store.Carts().SaveItem(ctx, &cart.CartItem{CartID: c.ID, ProductID: 9999, Quantity: 1, Checked: true}))

	_, err = f.checkout.PlaceOrder(ctx, userID, receiver())
	assert.ErrorIs(t, err, product.ErrNotFound)

	assert.Equal(t, 3, f.stock(t, p.ID))
	count, err := f.carts.CountItems(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrder_SnapshotSurvivesCatalogChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "19.99", 10)
	f.add(t, 1, p.ID, 3)

	placed, err := f.checkout.PlaceOrder(ctx, 1, receiver())
	require.NoError(t, err)

	p.Name = "Renamed"
	p.Price = decimal.RequireFromString("1.00")
	p.ImageURL = "https://example.com/new.png"
	require.NoError(t, f.store.Products().Save(ctx, p))

	stored, err := f.store.Orders().FindByID(ctx, placed.ID)
	require.NoError(t, err)

	opts := cmp.Options{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.IgnoreFields(order.OrderItem{}, "CreatedAt"),
	}
	if diff := cmp.Diff(placed.Items, stored.Items, opts); diff != "" {
		t.Errorf("order items changed (-placed +stored):\n%s", diff)
	}
	assert.Equal(t, "59.97", stored.TotalAmount.StringFixed(2))
}

func TestPlaceOrder_PublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	p := f.product(t, "1.00", 1)
	f.add(t, 1, p.ID, 1)

	_, err := f.checkout.PlaceOrder(context.Background(), 1, receiver())
	require.NoError(t, err)
	assert.Zero(t, f.stock(t, p.ID))
}

func TestPlaceOrder_ConcurrentBuyersNeverOversell(t *testing.T) {
	const (
		buyers = 20
		stock  = 5
	)

	f := newFixture(t)
	p := f.product(t, "9.99", stock)
	for userID := uint(1); userID <= buyers; userID++ {
		f.add(t, userID, p.ID, 1)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for userID := uint(1); userID <= buyers; userID++ {
		req := receiver()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkout.PlaceOrder(context.Background(), userID, req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, product.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, placed)
	assert.Equal(t, buyers-stock, rejected)
	assert.Zero(t, f.stock(t, p.ID))
}

func TestPlaceOrder_SameUserSubmitsTwice(t *testing.T) {
	const attempts = 5

	f := newFixture(t)
	p := f.product(t, "3.00", 10)
	f.add(t, 1, p.ID, 2)

	reqs := make([]*order.CreateOrderRequest, attempts)
	for i := range reqs {
		reqs[i] = receiver()
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
		empty  int
	)
	for _, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkout.PlaceOrder(context.Background(), 1, req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, cart.ErrEmptySelection):
				empty++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Equal(t, attempts-1, empty)
	assert.Equal(t, 8, f.stock(t, p.ID))
}
