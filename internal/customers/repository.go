package customers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// SearchFilter narrows customer listings.
type SearchFilter struct {
	Query      string
	OnlyActive bool
	Page       pagination.Params
}

// Stats aggregates the customer base.
type Stats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	WithTaxID int64 `json:"with_tax_id"`
	WithEmail int64 `json:"with_email"`
}

// Repository exposes customer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error)
	Search(ctx context.Context, filter SearchFilter) ([]models.Customer, int64, error)
	Update(ctx context.Context, customer *models.Customer) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	CountSales(ctx context.Context, customerID uint) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customer repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("tax_id = ?", taxID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search matches the query against name, email and phone as a substring and,
// when the query is all digits, against the tax id.
func (r *repository) Search(ctx context.Context, filter SearchFilter) ([]models.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{}).Where("deleted_at IS NULL")

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if q := filter.Query; q != "" {
		like := "%" + q + "%"
		if isDigits(q) {
			query = query.Where(
				"name LIKE ? OR email LIKE ? OR phone LIKE ? OR tax_id LIKE ?",
				like, like, like, like,
			)
		} else {
			query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filter.Page)
	var rows []models.Customer
	err := query.
		Order("name ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "deleted_at": at}).Error
}

func (r *repository) CountSales(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Customer{}).Where("deleted_at IS NULL")
	}

	var stats Stats
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("tax_id IS NOT NULL").Count(&stats.WithTaxID).Error; err != nil {
		return nil, err
	}
	if err := base().Where("email IS NOT NULL AND email <> ''").Count(&stats.WithEmail).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
