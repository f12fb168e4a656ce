package models

import (
	"time"
)

// Customer represents a registered buyer. TaxID holds the cleaned CPF digits
// and is unique among customers that have one.
type Customer struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string     `gorm:"column:name;not null"`
	TaxID     *string    `gorm:"column:tax_id;uniqueIndex"`
	Email     *string    `gorm:"column:email"`
	Phone     *string    `gorm:"column:phone"`
	Address   *string    `gorm:"column:address"`
	Notes     *string    `gorm:"column:notes"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
