package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
)

// SaleRow is the minimal sale projection used for period bucketing.
type SaleRow struct {
	OccurredAt time.Time       `json:"occurred_at"`
	Total      decimal.Decimal `json:"total"`
}

// TopCustomer ranks customers by spend inside a period.
type TopCustomer struct {
	CustomerID uint            `json:"customer_id"`
	Name       string          `json:"name"`
	Purchases  int64           `json:"purchases"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// OperatorProductivity aggregates sales per operator.
type OperatorProductivity struct {
	OperatorLogin string          `json:"operator_login"`
	Sales         int64           `json:"sales"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// RFMSource is one customer's raw purchase aggregates.
type RFMSource struct {
	CustomerID   uint            `json:"customer_id"`
	Name         string          `json:"name"`
	LastPurchase time.Time       `json:"last_purchase"`
	Frequency    int64           `json:"frequency"`
	Monetary     decimal.Decimal `json:"monetary"`
}

// Repository exposes the read-only aggregates behind the report surface.
type Repository interface {
	CustomerCount(ctx context.Context) (int64, error)
	ActiveProductCount(ctx context.Context) (int64, error)
	LowStockCount(ctx context.Context) (int64, error)
	SalesCountAndRevenue(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error)
	SaleRows(ctx context.Context, from, to time.Time) ([]SaleRow, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error)
	Productivity(ctx context.Context, from, to time.Time) ([]OperatorProductivity, error)
	RFMSources(ctx context.Context) ([]RFMSource, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a report repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CustomerCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) ActiveProductCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("deleted_at IS NULL AND is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *repository) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("deleted_at IS NULL AND is_active = ? AND quantity <= reorder_threshold", true).
		Count(&count).Error
	return count, err
}

func (r *repository) SalesCountAndRevenue(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error) {
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

func (r *repository) SaleRows(ctx context.Context, from, to time.Time) ([]SaleRow, error) {
	var rows []SaleRow
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("occurred_at, total").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Order("occurred_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error) {
	var rows []TopCustomer
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.customer_id AS customer_id,
		       c.name AS name,
		       COUNT(s.id) AS purchases,
		       COALESCE(SUM(s.total), 0) AS revenue
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.occurred_at >= ? AND s.occurred_at < ? AND s.customer_id IS NOT NULL
		GROUP BY s.customer_id, c.name
		ORDER BY revenue DESC
		LIMIT ?`, from, to, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Productivity(ctx context.Context, from, to time.Time) ([]OperatorProductivity, error) {
	var rows []OperatorProductivity
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("operator_login, COUNT(id) AS sales, COALESCE(SUM(total), 0) AS revenue").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Group("operator_login").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RFMSources(ctx context.Context) ([]RFMSource, error) {
	var rows []RFMSource
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.customer_id AS customer_id,
		       c.name AS name,
		       MAX(s.occurred_at) AS last_purchase,
		       COUNT(s.id) AS frequency,
		       COALESCE(SUM(s.total), 0) AS monetary
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.customer_id IS NOT NULL
		GROUP BY s.customer_id, c.name`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
