package models

import (
	"time"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// StockMovement is the append-only history of inventory changes. Quantity is
// always positive; Type carries the direction.
type StockMovement struct {
	ID            uint                      `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID     uint                      `gorm:"column:product_id;not null;index"`
	Product       *Product                  `gorm:"foreignKey:ProductID"`
	Type          enums.StockMovementType   `gorm:"column:type;not null"`
	Source        enums.StockMovementSource `gorm:"column:source;not null;index"`
	Quantity      int                       `gorm:"column:quantity;not null"`
	QuantityAfter int                       `gorm:"column:quantity_after;not null"`
	SaleID        *uint                     `gorm:"column:sale_id;index"`
	Reason        *string                   `gorm:"column:reason"`
	ActorLogin    string                    `gorm:"column:actor_login;not null"`
	OccurredAt    time.Time                 `gorm:"column:occurred_at;not null;index"`
}
