package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// Promotion represents a discount campaign over a date range. Value is a
// percentage for percentage promotions and an absolute amount for fixed ones;
// bundle promotions carry their pricing in Description and are quoted only.
type Promotion struct {
	ID          uint                  `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string                `gorm:"column:name;not null;uniqueIndex"`
	Description *string               `gorm:"column:description"`
	Type        enums.PromotionType   `gorm:"column:type;not null"`
	Value       decimal.Decimal       `gorm:"column:value;type:numeric(12,2);not null;default:0"`
	StartsOn    time.Time             `gorm:"column:starts_on;not null;index"`
	EndsOn      time.Time             `gorm:"column:ends_on;not null;index"`
	Status      enums.PromotionStatus `gorm:"column:status;not null;default:planned;index"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
