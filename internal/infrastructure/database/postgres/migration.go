// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/checkout-backend/internal/domain/cart"
	"github.com/your-org/checkout-backend/internal/domain/order"
	"github.com/your-org/checkout-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations for development setups.
// Production schemas are managed by cmd/migrate and the SQL files in migrations/.
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for the read paths
func (m *Migration) CreateIndexes() error {
	m.log.Info("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_status ON products(status) WHERE deleted_at IS NULL",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_checked ON cart_items(cart_id, checked)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC, id DESC)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts demo catalog entries
func (m *Migration) SeedInitialData() error {
	m.log.Info("🌱 Seeding initial data...")

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("✅ Initial data seeded successfully")
	return nil
}

// DemoProducts is the development catalog
func DemoProducts() []product.Product {
	return []product.Product{
		{
			CatalogNumber: "CAT-0001",
			Name:          "Premium Gaming Laptop",
			Description:   "High-performance gaming laptop with dedicated graphics",
			Price:         decimal.RequireFromString("1999.99"),
			Stock:         25,
			Status:        product.ProductStatusOpen,
		},
		{
			CatalogNumber: "CAT-0002",
			Name:          "Wireless Bluetooth Headphones",
			Description:   "Noise-cancelling headphones with 30-hour battery life",
			Price:         decimal.RequireFromString("149.50"),
			Stock:         100,
			Status:        product.ProductStatusOpen,
		},
		{
			CatalogNumber: "CAT-0003",
			Name:          "Organic Cotton T-Shirt",
			Description:   "Comfortable everyday t-shirt",
			Price:         decimal.RequireFromString("19.90"),
			Stock:         500,
			Status:        product.ProductStatusOpen,
		},
		{
			CatalogNumber: "CAT-0004",
			Name:          "Limited Edition Print",
			Description:   "Sold out collector print",
			Price:         decimal.RequireFromString("89.00"),
			Stock:         0,
			Status:        product.ProductStatusClosed,
		},
	}
}

func (m *Migration) seedProducts() error {
	for _, p := range DemoProducts() {
		var existing product.Product
		err := m.db.Unscoped().Where("catalog_number = ?", p.CatalogNumber).First(&existing).Error
		if err == nil {
			m.log.Debugf("⏭️ Product already exists: %s", p.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := m.db.Create(&p).Error; err != nil {
			return err
		}
		m.log.Infof("✅ Created product: %s", p.Name)
	}

	return nil
}
