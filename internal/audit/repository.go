package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// Filter narrows trail listings.
type Filter struct {
	Module *enums.AuditModule
	Actor  *string
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// Repository exposes the append-only trail persistence. There is no update
// or delete surface on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter Filter) ([]models.AuditEntry, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the trail repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})

	if filter.Module != nil {
		query = query.Where("module = ?", *filter.Module)
	}
	if filter.Actor != nil {
		query = query.Where("actor_login = ?", *filter.Actor)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filter.Page)
	var rows []models.AuditEntry
	err := query.
		Order("occurred_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
