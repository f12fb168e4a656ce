package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	CustomerID    *uint
	OperatorLogin *string
	Page          pagination.Params
}

// PaymentBreakdown is revenue per settlement method.
type PaymentBreakdown struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Count         int64               `json:"count"`
	Revenue       decimal.Decimal     `json:"revenue"`
}

// TopProduct ranks products by units sold inside a period.
type TopProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Units     int64           `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Repository exposes sale persistence. Register and Reverse run against a
// transaction-bound copy obtained via WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	FindPromotion(ctx context.Context, id uint) (*models.Promotion, error)
	CustomerExists(ctx context.Context, id uint) (bool, error)
	DecrementStock(ctx context.Context, productID uint, quantity int) (int64, error)
	RestoreStock(ctx context.Context, productID uint, quantity int) error
	QuantityOf(ctx context.Context, productID uint) (int, error)
	InsertSale(ctx context.Context, sale *models.Sale) error
	InsertMovement(ctx context.Context, movement *models.StockMovement) error
	FindSale(ctx context.Context, id uint) (*models.Sale, error)
	DeleteSale(ctx context.Context, id uint) error
	List(ctx context.Context, filter ListFilter) ([]models.Sale, int64, error)
	CountAndRevenue(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error)
	DistinctCustomers(ctx context.Context, from, to time.Time) (int64, error)
	PaymentBreakdown(ctx context.Context, from, to time.Time) ([]PaymentBreakdown, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindPromotion(ctx context.Context, id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).First(&promotion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repository) CustomerExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementStock subtracts sold units with a guard against going negative.
// A zero rows-affected result means the guard rejected the decrement.
func (r *repository) DecrementStock(ctx context.Context, productID uint, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?",
		quantity, time.Now().UTC(), productID, quantity,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) RestoreStock(ctx context.Context, productID uint, quantity int) error {
	return r.db.WithContext(ctx).Exec(
		"UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?",
		quantity, time.Now().UTC(), productID,
	).Error
}

func (r *repository) QuantityOf(ctx context.Context, productID uint) (int, error) {
	var quantity int
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("quantity", &quantity).Error
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

func (r *repository) InsertSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) FindSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSale removes the sale row; items follow through the cascade.
func (r *repository) DeleteSale(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.SaleItem{}, "sale_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Sale{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Sale{})

	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.OperatorLogin != nil {
		query = query.Where("operator_login = ?", *filter.OperatorLogin)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(filter.Page)
	var rows []models.Sale
	err := query.
		Preload("Items").
		Preload("Customer").
		Order("occurred_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) CountAndRevenue(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COUNT(id) AS count, COALESCE(SUM(total), 0) AS revenue").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Revenue, nil
}

func (r *repository) DistinctCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("occurred_at >= ? AND occurred_at < ? AND customer_id IS NOT NULL", from, to).
		Distinct("customer_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) PaymentBreakdown(ctx context.Context, from, to time.Time) ([]PaymentBreakdown, error) {
	var rows []PaymentBreakdown
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("payment_method, COUNT(id) AS count, COALESCE(SUM(total), 0) AS revenue").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Group("payment_method").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Raw(`
		SELECT si.product_id AS product_id,
		       p.name AS name,
		       COALESCE(SUM(si.quantity), 0) AS units,
		       COALESCE(SUM(si.subtotal), 0) AS revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.occurred_at >= ? AND s.occurred_at < ?
		GROUP BY si.product_id, p.name
		ORDER BY units DESC
		LIMIT ?`, from, to, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
