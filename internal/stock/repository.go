package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// MovementFilter narrows movement history listings.
type MovementFilter struct {
	ProductID *uint
	Source    *enums.StockMovementSource
	From      *time.Time
	To        *time.Time
	Page      pagination.Params
}

// CategoryValue aggregates on-hand value per catalog category.
type CategoryValue struct {
	CategoryID   *uint           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Products     int64           `json:"products"`
	Units        int64           `json:"units"`
	CostValue    decimal.Decimal `json:"cost_value"`
	SaleValue    decimal.Decimal `json:"sale_value"`
}

// Suggestion recommends a replenishment purchase for one product.
type Suggestion struct {
	ProductID      uint            `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	Threshold      int             `json:"threshold"`
	RecommendedQty int             `json:"recommended_qty"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
}

// Repository exposes inventory persistence. AdjustQuantity is the single
// write path for on-hand changes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	AdjustQuantity(ctx context.Context, productID uint, delta int) (int64, error)
	QuantityOf(ctx context.Context, productID uint) (int, error)
	InsertMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]models.StockMovement, int64, error)
	LowStock(ctx context.Context) ([]models.Product, error)
	ZeroStock(ctx context.Context) ([]models.Product, error)
	ValueByCategory(ctx context.Context) ([]CategoryValue, error)
	Totals(ctx context.Context) (products int64, units int64, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repo bound to the provided GORM DB.
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

// AdjustQuantity applies a signed delta with a guard so on-hand can never go
// negative. Callers must check the returned rows-affected count: zero means
// the product is missing or the guard rejected the decrement.
func (r *repository) AdjustQuantity(ctx context.Context, productID uint, delta int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ? AND quantity + ? >= 0",
		delta, time.Now().UTC(), productID, delta,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
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

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]models.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
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
	var rows []models.StockMovement
	err := query.
		Preload("Product").
		Order("occurred_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) LowStock(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND is_active = ? AND quantity <= reorder_threshold AND quantity > 0", true).
		Order("quantity ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ZeroStock(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND is_active = ? AND quantity = 0", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ValueByCategory(ctx context.Context) ([]CategoryValue, error) {
	var rows []CategoryValue
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.category_id AS category_id,
		       COALESCE(c.name, 'uncategorized') AS category_name,
		       COUNT(p.id) AS products,
		       COALESCE(SUM(p.quantity), 0) AS units,
		       COALESCE(SUM(p.quantity * p.cost_price), 0) AS cost_value,
		       COALESCE(SUM(p.quantity * p.sale_price), 0) AS sale_value
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.deleted_at IS NULL
		GROUP BY p.category_id, c.name
		ORDER BY category_name ASC`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Totals(ctx context.Context) (int64, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).Where("deleted_at IS NULL")

	var products int64
	if err := base.Count(&products).Error; err != nil {
		return 0, 0, err
	}

	var units struct{ Units int64 }
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("COALESCE(SUM(quantity), 0) AS units").
		Where("deleted_at IS NULL").
		Scan(&units).Error
	if err != nil {
		return 0, 0, err
	}
	return products, units.Units, nil
}
