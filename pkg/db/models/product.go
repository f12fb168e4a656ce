package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item with its on-hand quantity.
type Product struct {
	ID               uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string          `gorm:"column:name;not null;index"`
	Description      *string         `gorm:"column:description"`
	Barcode          *string         `gorm:"column:barcode;uniqueIndex"`
	CategoryID       *uint           `gorm:"column:category_id;index"`
	Category         *Category       `gorm:"foreignKey:CategoryID"`
	CostPrice        decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	SalePrice        decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	Quantity         int             `gorm:"column:quantity;not null;default:0"`
	ReorderThreshold int             `gorm:"column:reorder_threshold;not null;default:0"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	DeletedAt        *time.Time      `gorm:"column:deleted_at;index"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
