package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// Sale represents a completed counter transaction.
type Sale struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	OccurredAt    time.Time           `gorm:"column:occurred_at;not null;index"`
	CustomerID    *uint               `gorm:"column:customer_id;index"`
	Customer      *Customer           `gorm:"foreignKey:CustomerID"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	OperatorLogin string              `gorm:"column:operator_login;not null;index"`
	Items         []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// SaleItem is one product line inside a sale. UnitPrice is the price charged
// after any promotion discount.
type SaleItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	SaleID      uint            `gorm:"column:sale_id;not null;index"`
	ProductID   uint            `gorm:"column:product_id;not null;index"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	PromotionID *uint           `gorm:"column:promotion_id;index"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
}
