//go:build integration

// internal/infrastructure/database/postgres/store_integration_test.go
package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/checkout"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"github.com/your-org/checkout-backend/internal/domain/store"
	"github.com/your-org/checkout-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/checkout-backend/internal/pkg/logger"
)

type storeSuite struct {
	suite.Suite

	container *tcpostgres.PostgresContainer
	db        *postgres.DB
	store     *postgres.Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(storeSuite))
}

func (s *storeSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("checkout"),
		tcpostgres.WithUsername("checkout"),
		tcpostgres.WithPassword("checkout"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	s.Require().NoError(err)

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:         host,
			Port:         port.Port(),
			Name:         "checkout",
			User:         "checkout",
			Password:     "checkout",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
			MaxLifetime:  time.Minute,
		},
	}

	m, err := migrate.New("file://migrations", cfg.GetMigrationDSN())
	s.Require().NoError(err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.Require().NoError(err)
	}
	_, _ = m.Close()

	s.db, err = postgres.NewConnection(cfg, logger.Discard())
	s.Require().NoError(err)
	s.store = postgres.NewStore(s.db.GetDB())
}

func (s *storeSuite) TearDownSuite() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
	if s.container != nil {
		s.NoError(s.container.Terminate(context.Background()))
	}
}

func (s *storeSuite) product(stock int) *product.Product {
	p := &product.Product{
		CatalogNumber: gofakeit.UUID(),
		Name:          gofakeit.ProductName(),
		Price:         decimal.RequireFromString("25.50"),
		Stock:         stock,
		Status:        product.ProductStatusOpen,
	}
	s.Require().NoError(s.store.Products().Save(context.Background(), p))
	return p
}

func (s *storeSuite) TestHealth() {
	s.NoError(s.db.Health(context.Background()))
}

func (s *storeSuite) TestDecreaseStockIfEnough() {
	ctx := context.Background()
	p := s.product(3)

	ok, err := s.store.Products().DecreaseStockIfEnough(ctx, p.ID, 4)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.Products().DecreaseStockIfEnough(ctx, p.ID, 3)
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.store.Products().GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Zero(got.Stock)
}

func (s *storeSuite) TestDecreaseStock_ConcurrentNeverNegative() {
	const workers = 12
	ctx := context.Background()
	p := s.product(5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.Products().DecreaseStockIfEnough(ctx, p.ID, 1)
			if err != nil {
				s.T().Errorf("decrease stock: %v", err)
				return
			}
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(5, succeeded)
	got, err := s.store.Products().GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Zero(got.Stock)
}

func (s *storeSuite) TestGetByIDsIncludesSoftDeleted() {
	ctx := context.Background()
	p := s.product(1)
	s.Require().NoError(s.db.GetDB().Delete(&product.Product{}, p.ID).Error)

	found, err := s.store.Products().GetByIDs(ctx, []uint{p.ID})
	s.Require().NoError(err)
	s.Require().Contains(found, p.ID)
	s.True(found[p.ID].IsDeleted())
	s.False(found[p.ID].IsPurchasable())
}

func (s *storeSuite) TestCartLines() {
	ctx := context.Background()
	carts := s.store.Carts()
	userID := uint(gofakeit.Uint32())
	p := s.product(10)

	c, err := carts.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	again, err := carts.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	s.Equal(c.ID, again.ID)

	item := &cart.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 2, Checked: true}
	s.Require().NoError(carts.SaveItem(ctx, item))
	s.NotZero(item.ID)

	s.Require().NoError(carts.SetAllChecked(ctx, c.ID, false))
	checked, err := carts.ListChecked(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(checked)

	count, err := carts.CountItems(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(carts.DeleteByCart(ctx, c.ID))
	_, err = carts.FindItem(ctx, c.ID, p.ID)
	s.ErrorIs(err, cart.ErrItemNotFound)
}

func (s *storeSuite) TestOrders() {
	ctx := context.Background()
	orders := s.store.Orders()
	userID := uint(gofakeit.Uint32())
	p := s.product(10)

	o := &order.Order{
		OrderNumber:     "ORD" + gofakeit.DigitN(18),
		UserID:          userID,
		Status:          order.OrderStatusPending,
		ReceiverName:    gofakeit.Name(),
		ReceiverPhone:   "555-0100",
		ReceiverAddress: gofakeit.Street(),
		Items:           []order.OrderItem{order.NewItem(p.ID, p.Name, "", p.Price, 2)},
	}
	o.TotalAmount = o.CalculateTotal()
	s.Require().NoError(orders.Create(ctx, o))

	duplicate := &order.Order{
		OrderNumber:     o.OrderNumber,
		UserID:          userID,
		Status:          order.OrderStatusPending,
		ReceiverName:    "x",
		ReceiverPhone:   "x",
		ReceiverAddress: "x",
		TotalAmount:     decimal.Zero,
	}
	s.ErrorIs(orders.Create(ctx, duplicate), order.ErrNumberConflict)

	exists, err := orders.ExistsByNumber(ctx, o.OrderNumber)
	s.Require().NoError(err)
	s.True(exists)

	got, err := orders.FindByNumberForUser(ctx, o.OrderNumber, userID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	s.Equal("51", got.Items[0].Subtotal.String())

	_, err = orders.FindByIDForUser(ctx, o.ID, userID+1)
	s.ErrorIs(err, order.ErrNotFound)

	ok, err := orders.UpdateStatus(ctx, o.ID, order.OrderStatusConfirmed, order.OrderStatusShipped)
	s.Require().NoError(err)
	s.False(ok)

	err = s.store.WithinTx(ctx, func(r store.Repos) error {
		locked, err := r.Orders().FindForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		ok, err := r.Orders().UpdateStatus(ctx, locked.ID, order.OrderStatusPending, order.OrderStatusConfirmed)
		if err != nil {
			return err
		}
		s.True(ok)
		return r.Orders().AddHistory(ctx, &order.OrderStatusHistory{
			OrderID:    locked.ID,
			FromStatus: order.OrderStatusPending,
			Status:     order.OrderStatusConfirmed,
		})
	})
	s.Require().NoError(err)

	pending := order.OrderStatusPending
	count, err := orders.CountForUser(ctx, userID, &pending)
	s.Require().NoError(err)
	s.Zero(count)

	history, err := orders.ListHistory(ctx, o.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *storeSuite) TestWithinTx_Rollback() {
	ctx := context.Background()
	p := s.product(4)
	boom := errors.New("boom")

	err := s.store.WithinTx(ctx, func(r store.Repos) error {
		ok, err := r.Products().DecreaseStockIfEnough(ctx, p.ID, 4)
		s.Require().NoError(err)
		s.Require().True(ok)
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.Products().GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(4, got.Stock)
}

func (s *storeSuite) TestPlaceOrder_SameUserSubmitsTwice() {
	const attempts = 4
	ctx := context.Background()
	t := s.T()
	userID := uint(gofakeit.Uint32())
	p := s.product(10)

	c, err := s.store.Carts().GetOrCreate(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, s.store.Carts().SaveItem(ctx, &cart.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 3, Checked: true}))

	numbers := order.NewNumberGenerator(order.DefaultNumberPrefix, order.DefaultNumberMaxAttempts, order.NewLocalReserver(time.Minute))
	svc := checkout.NewService(s.store, numbers, nil, nil, logger.Discard())

	reqs := make([]*order.CreateOrderRequest, attempts)
	for i := range reqs {
		reqs[i] = &order.CreateOrderRequest{ReceiverName: gofakeit.Name(), ReceiverPhone: "555-0100", ReceiverAddress: gofakeit.Street()}
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
			_, err := svc.PlaceOrder(ctx, userID, req)

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

	s.Equal(1, placed)
	s.Equal(attempts-1, empty)

	got, err := s.store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	s.Equal(7, got.Stock)

	count, err := s.store.Orders().CountForUser(ctx, userID, nil)
	require.NoError(t, err)
	s.Equal(int64(1), count)
}
