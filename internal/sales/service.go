package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// ItemInput is one line of a sale being registered. UnitPrice overrides the
// catalog price when set; bundle promotions require it.
type ItemInput struct {
	ProductID   uint
	Quantity    int
	PromotionID *uint
	UnitPrice   *decimal.Decimal
}

// RegisterInput is a counter transaction being committed.
type RegisterInput struct {
	CustomerID    *uint
	PaymentMethod enums.PaymentMethod
	Items         []ItemInput
}

// ReverseInput undoes a registered sale.
type ReverseInput struct {
	SaleID uint
	Reason string
}

// ListParams filters the sale listing.
type ListParams struct {
	From          *time.Time
	To            *time.Time
	CustomerID    *uint
	OperatorLogin string
	Page          pagination.Params
}

// ListResult is one page of sales.
type ListResult struct {
	Sales []models.Sale   `json:"sales"`
	Page  pagination.Page `json:"page"`
}

// Metrics summarizes sales inside a period.
type Metrics struct {
	Count             int64              `json:"count"`
	Revenue           decimal.Decimal    `json:"revenue"`
	AverageTicket     decimal.Decimal    `json:"average_ticket"`
	DistinctCustomers int64              `json:"distinct_customers"`
	ByPayment         []PaymentBreakdown `json:"by_payment"`
	TopProducts       []TopProduct       `json:"top_products"`
}

const topProductsLimit = 10

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the point-of-sale operations.
type Service interface {
	Register(ctx context.Context, operator string, input RegisterInput) (*models.Sale, error)
	Reverse(ctx context.Context, actor string, input ReverseInput) error
	Get(ctx context.Context, id uint) (*models.Sale, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CustomerHistory(ctx context.Context, customerID uint, page pagination.Params) (*ListResult, error)
	MetricsForPeriod(ctx context.Context, from, to time.Time) (*Metrics, error)
}

type service struct {
	db    transactor
	repo  Repository
	trail audit.Recorder
	now   func() time.Time
}

// NewService builds the sales service.
func NewService(db transactor, repo Repository, trail audit.Recorder) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{db: db, repo: repo, trail: trail, now: time.Now}, nil
}

// Register validates every line, decrements stock behind the negative-stock
// guard and records the sale plus its movements in one transaction.
func (s *service) Register(ctx context.Context, operator string, input RegisterInput) (*models.Sale, error) {
	if strings.TrimSpace(operator) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operator is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale needs at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	occurredAt := s.now().UTC()
	var sale *models.Sale

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.CustomerID != nil {
			exists, err := repo.CustomerExists(ctx, *input.CustomerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking customer")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeValidation, "customer does not exist")
			}
		}

		total := decimal.Zero
		items := make([]models.SaleItem, 0, len(input.Items))
		for _, line := range input.Items {
			item, err := s.buildItem(ctx, repo, line, occurredAt)
			if err != nil {
				return err
			}
			total = total.Add(item.Subtotal)
			items = append(items, *item)
		}

		sale = &models.Sale{
			OccurredAt:    occurredAt,
			CustomerID:    input.CustomerID,
			Total:         total,
			PaymentMethod: input.PaymentMethod,
			OperatorLogin: operator,
			Items:         items,
		}
		if err := repo.InsertSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting sale")
		}

		for _, item := range sale.Items {
			affected, err := repo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrementing stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("insufficient stock for product %d", item.ProductID))
			}

			after, err := repo.QuantityOf(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading quantity")
			}
			saleID := sale.ID
			movement := &models.StockMovement{
				ProductID:     item.ProductID,
				Type:          enums.StockMovementTypeOut,
				Source:        enums.StockMovementSourceSale,
				Quantity:      item.Quantity,
				QuantityAfter: after,
				SaleID:        &saleID,
				ActorLogin:    operator,
				OccurredAt:    occurredAt,
			}
			if err := repo.InsertMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording movement")
			}
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err)
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  operator,
		Module: enums.AuditModuleSales,
		Action: "registered",
		Detail: fmt.Sprintf("sale %d total %s items %d", sale.ID, sale.Total.StringFixed(2), len(sale.Items)),
	})
	return sale, nil
}

// Reverse restores the exact consumed quantities and removes the sale with
// its items, recording reversal movements.
func (s *service) Reverse(ctx context.Context, actor string, input ReverseInput) error {
	if input.SaleID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reversal reason is required")
	}

	occurredAt := s.now().UTC()
	var reversedTotal decimal.Decimal

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sale, err := repo.FindSale(ctx, input.SaleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale")
		}
		reversedTotal = sale.Total

		for _, item := range sale.Items {
			if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restoring stock")
			}
			after, err := repo.QuantityOf(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading quantity")
			}
			saleID := sale.ID
			reason := strings.TrimSpace(input.Reason)
			movement := &models.StockMovement{
				ProductID:     item.ProductID,
				Type:          enums.StockMovementTypeIn,
				Source:        enums.StockMovementSourceSaleReversal,
				Quantity:      item.Quantity,
				QuantityAfter: after,
				SaleID:        &saleID,
				Reason:        &reason,
				ActorLogin:    actor,
				OccurredAt:    occurredAt,
			}
			if err := repo.InsertMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording movement")
			}
		}

		if err := repo.DeleteSale(ctx, sale.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting sale")
		}
		return nil
	})
	if err != nil {
		return asTyped(err)
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleSales,
		Action: "reversed",
		Detail: fmt.Sprintf("sale %d total %s reason %s", input.SaleID, reversedTotal.StringFixed(2), strings.TrimSpace(input.Reason)),
	})
	return nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Sale, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	sale, err := s.repo.FindSale(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter := ListFilter{
		From:       params.From,
		To:         params.To,
		CustomerID: params.CustomerID,
		Page:       params.Page,
	}
	if operator := strings.TrimSpace(params.OperatorLogin); operator != "" {
		filter.OperatorLogin = &operator
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sales")
	}
	return &ListResult{Sales: rows, Page: pagination.PageFor(params.Page, total)}, nil
}

func (s *service) CustomerHistory(ctx context.Context, customerID uint, page pagination.Params) (*ListResult, error) {
	if customerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.List(ctx, ListParams{CustomerID: &customerID, Page: page})
}

func (s *service) MetricsForPeriod(ctx context.Context, from, to time.Time) (*Metrics, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must come after start")
	}

	count, revenue, err := s.repo.CountAndRevenue(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading revenue")
	}
	customers, err := s.repo.DistinctCustomers(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting customers")
	}
	byPayment, err := s.repo.PaymentBreakdown(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment breakdown")
	}
	topProducts, err := s.repo.TopProducts(ctx, from, to, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading top products")
	}

	metrics := &Metrics{
		Count:             count,
		Revenue:           revenue,
		AverageTicket:     decimal.Zero,
		DistinctCustomers: customers,
		ByPayment:         byPayment,
		TopProducts:       topProducts,
	}
	if count > 0 {
		metrics.AverageTicket = revenue.Div(decimal.NewFromInt(count)).Round(2)
	}
	return metrics, nil
}

// buildItem resolves the product and optional promotion for one line and
// prices it.
func (s *service) buildItem(ctx context.Context, repo Repository, line ItemInput, occurredAt time.Time) (*models.SaleItem, error) {
	product, err := repo.FindProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %d does not exist", line.ProductID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if !product.IsActive || product.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("product %d is not sellable", product.ID))
	}
	if product.Quantity < line.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("insufficient stock for product %d", product.ID))
	}

	unitPrice := product.SalePrice
	if line.UnitPrice != nil {
		if !line.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
		unitPrice = *line.UnitPrice
	}

	if line.PromotionID != nil {
		promotion, err := repo.FindPromotion(ctx, *line.PromotionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading promotion")
		}
		if promotion.Status != enums.PromotionStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion is not active")
		}
		discounted, err := discountedPrice(promotion, unitPrice, line.UnitPrice != nil)
		if err != nil {
			return nil, err
		}
		unitPrice = discounted
	}

	return &models.SaleItem{
		ProductID:   product.ID,
		PromotionID: line.PromotionID,
		Quantity:    line.Quantity,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
	}, nil
}

// discountedPrice applies percentage and fixed promotions. Bundle pricing is
// decided at the counter, so a bundle line must carry its own unit price.
func discountedPrice(promotion *models.Promotion, unitPrice decimal.Decimal, priceOverridden bool) (decimal.Decimal, error) {
	switch promotion.Type {
	case enums.PromotionTypePercentage:
		factor := decimal.NewFromInt(1).Sub(promotion.Value.Div(decimal.NewFromInt(100)))
		return unitPrice.Mul(factor).Round(2), nil
	case enums.PromotionTypeFixed:
		discounted := unitPrice.Sub(promotion.Value)
		if discounted.IsNegative() {
			discounted = decimal.Zero
		}
		return discounted, nil
	case enums.PromotionTypeBundle:
		if !priceOverridden {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				"bundle promotions require an explicit unit price")
		}
		return unitPrice, nil
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown promotion type")
}

func asTyped(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sale transaction failed")
}
