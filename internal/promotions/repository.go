package promotions

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// ListFilter narrows promotion listings.
type ListFilter struct {
	Status    *enums.PromotionStatus
	ActiveOn  *time.Time
	OnlyTypes []enums.PromotionType
}

// Repository exposes promotion persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promotion *models.Promotion) error
	FindByID(ctx context.Context, id uint) (*models.Promotion, error)
	List(ctx context.Context, filter ListFilter) ([]models.Promotion, error)
	Update(ctx context.Context, promotion *models.Promotion) error
	Delete(ctx context.Context, id uint) error
	CountSaleItems(ctx context.Context, promotionID uint) (int64, error)
	DueForActivation(ctx context.Context, now time.Time) ([]models.Promotion, error)
	DueForConclusion(ctx context.Context, now time.Time) ([]models.Promotion, error)
	UpdateStatus(ctx context.Context, id uint, status enums.PromotionStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotion repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).First(&promotion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Promotion, error) {
	query := r.db.WithContext(ctx).Model(&models.Promotion{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ActiveOn != nil {
		query = query.Where(
			"status = ? AND starts_on <= ? AND ends_on >= ?",
			enums.PromotionStatusActive, *filter.ActiveOn, *filter.ActiveOn,
		)
	}
	if len(filter.OnlyTypes) > 0 {
		query = query.Where("type IN ?", filter.OnlyTypes)
	}

	var rows []models.Promotion
	if err := query.Order("starts_on DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Save(promotion).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Promotion{}, "id = ?", id).Error
}

func (r *repository) CountSaleItems(ctx context.Context, promotionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SaleItem{}).
		Where("promotion_id = ?", promotionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) DueForActivation(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Where("status = ? AND starts_on <= ? AND ends_on >= ?", enums.PromotionStatusPlanned, now, now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DueForConclusion(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Where("status IN ? AND ends_on < ?",
			[]enums.PromotionStatus{enums.PromotionStatusPlanned, enums.PromotionStatusActive}, now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status enums.PromotionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ?", id).
		Update("status", status).Error
}
