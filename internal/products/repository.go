package products

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// ListFilter narrows product listings.
type ListFilter struct {
	Query      string
	CategoryID *uint
	OnlyActive bool
	LowStock   bool
	Page       pagination.Params
}

// Repository exposes product persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	CategoryExists(ctx context.Context, categoryID uint) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a product repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("barcode = ? AND deleted_at IS NULL", barcode).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("deleted_at IS NULL")

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.LowStock {
		query = query.Where("quantity <= reorder_threshold")
	}
	if q := filter.Query; q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR barcode LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filter.Page)
	var rows []models.Product
	err := query.
		Preload("Category").
		Order("name ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Save(product).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "deleted_at": at}).Error
}

func (r *repository) CategoryExists(ctx context.Context, categoryID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
