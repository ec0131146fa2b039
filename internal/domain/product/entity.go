// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus represents catalog availability of a product
type ProductStatus string

const (
	ProductStatusOpen   ProductStatus = "OPEN"
	ProductStatusClosed ProductStatus = "CLOSED"
	ProductStatusHidden ProductStatus = "HIDDEN"
)

// Product represents the product entity
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CatalogNumber string          `gorm:"uniqueIndex;not null;size:100" json:"catalog_number"`
	Name          string          `gorm:"not null;size:255" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	ImageURL      string          `gorm:"size:500" json:"image_url"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Status        ProductStatus   `gorm:"not null;size:20;default:'OPEN'" json:"status"`
	StartAt       *time.Time      `json:"start_at,omitempty"`
	EndAt         *time.Time      `json:"end_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string { return "products" }

// IsDeleted reports whether the product has been soft-deleted
func (p *Product) IsDeleted() bool {
	return p.DeletedAt.Valid
}

// IsPurchasable reports whether new orders may reference the product
func (p *Product) IsPurchasable() bool {
	return !p.IsDeleted() && p.Status != ProductStatusClosed
}

// IsVisibleAt reports whether the product is listed at the given time
func (p *Product) IsVisibleAt(t time.Time) bool {
	if p.IsDeleted() || p.Status != ProductStatusOpen {
		return false
	}
	if p.StartAt != nil && t.Before(*p.StartAt) {
		return false
	}
	if p.EndAt != nil && t.After(*p.EndAt) {
		return false
	}
	return true
}

// HasStock reports whether at least qty units are available
func (p *Product) HasStock(qty int) bool {
	return p.Stock >= qty
}
