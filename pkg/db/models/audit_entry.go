package models

import (
	"time"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// AuditEntry is an append-only trail record. Rows are never updated or
// deleted once written.
type AuditEntry struct {
	ID         uint              `gorm:"column:id;primaryKey;autoIncrement"`
	OccurredAt time.Time         `gorm:"column:occurred_at;not null;index"`
	ActorLogin string            `gorm:"column:actor_login;not null;index"`
	Module     enums.AuditModule `gorm:"column:module;not null;index"`
	Action     string            `gorm:"column:action;not null"`
	Detail     *string           `gorm:"column:detail"`
	OriginIP   *string           `gorm:"column:origin_ip"`
}
