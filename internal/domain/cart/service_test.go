// internal/domain/cart/service_test.go
package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/memory"
	"github.com/your-org/checkout-backend/internal/pkg/apperror"
	"github.com/your-org/checkout-backend/internal/pkg/logger"
)

const userID uint = 7

func newService(t *testing.T) (*cart.Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	return cart.NewService(st.Carts(), st.Products(), logger.Discard()), st
}

func seedProduct(t *testing.T, st *memory.Store, price string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		CatalogNumber: gofakeit.UUID(),
		Name:          gofakeit.ProductName(),
		Description:   gofakeit.ProductDescription(),
		ImageURL:      gofakeit.URL(),
		Price:         decimal.RequireFromString(price),
		Stock:         stock,
		Status:        product.ProductStatusOpen,
	}
	require.NoError(t, st.Products().Save(context.Background(), p))
	return p
}

func add(t *testing.T, svc *cart.Service, productID uint, qty int) *cart.CartResponse {
	t.Helper()
	resp, err := svc.AddItem(context.Background(), userID, &cart.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return resp
}

func TestGetCart_CreatesEmptyCart(t *testing.T) {
	svc, _ := newService(t)

	resp, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, resp.UserID)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.TotalAmount.IsZero())
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	svc, st := newService(t)
	p := seedProduct(t, st, "12.50", 10)

	add(t, svc, p.ID, 2)
	resp := add(t, svc, p.ID, 3)

	require.Len(t, resp.Items, 1)
	line := resp.Items[0]
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.Checked)
	assert.Equal(t, "62.50", line.Subtotal.StringFixed(2))
	assert.Equal(t, "62.50", resp.TotalAmount.StringFixed(2))
}

func TestAddItem_Rejections(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	p := seedProduct(t, st, "5.00", 3)
	closed := seedProduct(t, st, "5.00", 3)
	closed.Status = product.ProductStatusClosed
	require.NoError(t, st.Products().Save(ctx, closed))

	tests := []struct {
		name string
		req  cart.AddToCartRequest
		want error
	}{
		{"zero quantity", cart.AddToCartRequest{ProductID: p.ID, Quantity: 0}, cart.ErrInvalidQuantity},
		{"unknown product", cart.AddToCartRequest{ProductID: 999, Quantity: 1}, product.ErrNotFound},
		{"closed product", cart.AddToCartRequest{ProductID: closed.ID, Quantity: 1}, product.ErrUnavailable},
		{"over stock", cart.AddToCartRequest{ProductID: p.ID, Quantity: 4}, product.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, userID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	count, err := svc.CountItems(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddItem_MergeExceedingStock(t *testing.T) {
	svc, st := newService(t)
	p := seedProduct(t, st, "1.00", 4)

	add(t, svc, p.ID, 3)
	_, err := svc.AddItem(context.Background(), userID, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Equal(t, apperror.KindResourceExhausted, apperror.KindOf(err))
}

func TestUpdateItem(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	p := seedProduct(t, st, "3.00", 5)
	itemID := add(t, svc, p.ID, 1).Items[0].ID

	resp, err := svc.UpdateItem(ctx, userID, itemID, &cart.UpdateCartItemRequest{Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, userID, itemID, &cart.UpdateCartItemRequest{Quantity: 6})
	assert.ErrorIs(t, err, product.ErrInsufficientStock)
}

func TestUpdateItem_RejectsWithdrawnProduct(t *testing.T) {
	tests := []struct {
		name     string
		withdraw func(p *product.Product)
	}{
		{"closed", func(p *product.Product) { p.Status = product.ProductStatusClosed }},
		{"soft deleted", func(p *product.Product) { p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newService(t)
			ctx := context.Background()
			p := seedProduct(t, st, "3.00", 5)
			itemID := add(t, svc, p.ID, 1).Items[0].ID

			tt.withdraw(p)
			require.NoError(t, st.Products().Save(ctx, p))

			_, err := svc.UpdateItem(ctx, userID, itemID, &cart.UpdateCartItemRequest{Quantity: 2})
			assert.ErrorIs(t, err, product.ErrUnavailable)

			resp, err := svc.GetCart(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Items[0].Quantity)
		})
	}
}

func TestForeignItemsAreNotFound(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	p := seedProduct(t, st, "3.00", 5)

	other, err := svc.AddItem(ctx, 99, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	foreignID := other.Items[0].ID

	_, err = svc.UpdateItem(ctx, userID, foreignID, &cart.UpdateCartItemRequest{Quantity: 2})
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	_, err = svc.RemoveItem(ctx, userID, foreignID)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	_, err = svc.ToggleItem(ctx, userID, foreignID)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	count, err := svc.CountItems(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestToggle_AffectsTotal(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	a := seedProduct(t, st, "10.00", 5)
	b := seedProduct(t, st, "2.00", 5)

	add(t, svc, a.ID, 1)
	resp := add(t, svc, b.ID, 2)
	assert.Equal(t, "14.00", resp.TotalAmount.StringFixed(2))

	resp, err := svc.ToggleItem(ctx, userID, resp.Items[0].ID)
	require.NoError(t, err)
	assert.False(t, resp.Items[0].Checked)
	assert.Equal(t, "4.00", resp.TotalAmount.StringFixed(2))

	resp, err = svc.ToggleAll(ctx, userID, false)
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.IsZero())

	resp, err = svc.ToggleAll(ctx, userID, true)
	require.NoError(t, err)
	assert.Equal(t, "14.00", resp.TotalAmount.StringFixed(2))
}

func TestBatchRemove_AllOrNothing(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	a := seedProduct(t, st, "1.00", 5)
	b := seedProduct(t, st, "1.00", 5)

	add(t, svc, a.ID, 1)
	resp := add(t, svc, b.ID, 1)
	ids := []uint{resp.Items[0].ID, resp.Items[1].ID}

	_, err := svc.BatchRemove(ctx, userID, append(ids, 12345))
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	count, err := svc.CountItems(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	resp, err = svc.BatchRemove(ctx, userID, ids)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestRemoveCheckedAndGetChecked(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	a := seedProduct(t, st, "1.00", 5)
	b := seedProduct(t, st, "1.00", 5)

	add(t, svc, a.ID, 1)
	resp := add(t, svc, b.ID, 1)
	_, err := svc.ToggleItem(ctx, userID, resp.Items[0].ID)
	require.NoError(t, err)

	checked, err := svc.GetChecked(ctx, userID)
	require.NoError(t, err)
	require.Len(t, checked.Items, 1)
	assert.Equal(t, b.ID, checked.Items[0].ProductID)

	resp, err = svc.RemoveChecked(ctx, userID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, a.ID, resp.Items[0].ProductID)
}

func TestClearAndCount_WithoutCart(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Clear(ctx, userID))
	count, err := svc.CountItems(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)

	p := seedProduct(t, st, "1.00", 5)
	add(t, svc, p.ID, 1)
	require.NoError(t, svc.Clear(ctx, userID))

	count, err = svc.CountItems(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRender_FlagsWithdrawnProducts(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	gone := seedProduct(t, st, "9.00", 5)
	ok := seedProduct(t, st, "1.00", 5)

	add(t, svc, gone.ID, 1)
	add(t, svc, ok.ID, 1)

	gone.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	require.NoError(t, st.Products().Save(ctx, gone))

	resp, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].ProductDeleted)
	assert.NotEmpty(t, resp.Items[0].ErrorMessage)
	assert.Equal(t, "1.00", resp.TotalAmount.StringFixed(2))
}
