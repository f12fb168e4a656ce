package stock

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

// EntryInput receives units into stock.
type EntryInput struct {
	ProductID uint
	Quantity  int
	Source    enums.StockMovementSource
	Reason    string
}

// ExitInput removes units from stock.
type ExitInput struct {
	ProductID uint
	Quantity  int
	Reason    string
}

// AdjustInput corrects on-hand to an absolute count.
type AdjustInput struct {
	ProductID      uint
	TargetQuantity int
	Reason         string
}

// HistoryParams filters the movement listing.
type HistoryParams struct {
	ProductID *uint
	Source    string
	From      *time.Time
	To        *time.Time
	Page      pagination.Params
}

// HistoryResult is one page of movements.
type HistoryResult struct {
	Movements []models.StockMovement `json:"movements"`
	Page      pagination.Page        `json:"page"`
}

// Report aggregates the current inventory position.
type Report struct {
	TotalProducts int64            `json:"total_products"`
	TotalUnits    int64            `json:"total_units"`
	LowStock      []models.Product `json:"low_stock"`
	ZeroStock     []models.Product `json:"zero_stock"`
	ByCategory    []CategoryValue  `json:"by_category"`
	CostValue     decimal.Decimal  `json:"cost_value"`
	SaleValue     decimal.Decimal  `json:"sale_value"`
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes inventory movements and reporting.
type Service interface {
	RegisterEntry(ctx context.Context, actor string, input EntryInput) (*models.StockMovement, error)
	RegisterExit(ctx context.Context, actor string, input ExitInput) (*models.StockMovement, error)
	Adjust(ctx context.Context, actor string, input AdjustInput) (*models.StockMovement, error)
	History(ctx context.Context, params HistoryParams) (*HistoryResult, error)
	Report(ctx context.Context) (*Report, error)
	Suggestions(ctx context.Context) ([]Suggestion, error)
}

type service struct {
	db    transactor
	repo  Repository
	trail audit.Recorder
	now   func() time.Time
}

// NewService builds the stock service.
func NewService(db transactor, repo Repository, trail audit.Recorder) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{db: db, repo: repo, trail: trail, now: time.Now}, nil
}

func (s *service) RegisterEntry(ctx context.Context, actor string, input EntryInput) (*models.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	source := input.Source
	if source == "" {
		source = enums.StockMovementSourceManual
	}
	if source != enums.StockMovementSourcePurchase && source != enums.StockMovementSourceManual {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entry source")
	}

	movement, err := s.move(ctx, actor, input.ProductID, enums.StockMovementTypeIn, input.Quantity, source, input.Reason)
	if err != nil {
		return nil, err
	}
	s.auditMovement(ctx, actor, movement)
	return movement, nil
}

func (s *service) RegisterExit(ctx context.Context, actor string, input ExitInput) (*models.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	movement, err := s.move(ctx, actor, input.ProductID, enums.StockMovementTypeOut, -input.Quantity, enums.StockMovementSourceManual, input.Reason)
	if err != nil {
		return nil, err
	}
	s.auditMovement(ctx, actor, movement)
	return movement, nil
}

// Adjust corrects on-hand to an absolute target count, recording the delta
// as one adjustment movement.
func (s *service) Adjust(ctx context.Context, actor string, input AdjustInput) (*models.StockMovement, error) {
	if input.TargetQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity cannot be negative")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason is required")
	}

	var movement *models.StockMovement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
		}

		delta := input.TargetQuantity - product.Quantity
		if delta == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "target equals current quantity")
		}

		affected, err := repo.AdjustQuantity(ctx, product.ID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjusting quantity")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
		}

		movement = s.buildMovement(product.ID, enums.StockMovementTypeAdjust, delta, input.TargetQuantity, enums.StockMovementSourceAdjustment, input.Reason, nil)
		movement.ActorLogin = actor
		if err := repo.InsertMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording movement")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err)
	}
	s.auditMovement(ctx, actor, movement)
	return movement, nil
}

func (s *service) History(ctx context.Context, params HistoryParams) (*HistoryResult, error) {
	filter := MovementFilter{
		ProductID: params.ProductID,
		From:      params.From,
		To:        params.To,
		Page:      params.Page,
	}
	if src := strings.TrimSpace(params.Source); src != "" {
		source, err := enums.ParseStockMovementSource(src)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid source filter")
		}
		filter.Source = &source
	}

	rows, total, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing movements")
	}
	return &HistoryResult{
		Movements: rows,
		Page:      pagination.PageFor(params.Page, total),
	}, nil
}

func (s *service) Report(ctx context.Context) (*Report, error) {
	products, units, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading totals")
	}
	low, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading low stock")
	}
	zero, err := s.repo.ZeroStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading zero stock")
	}
	byCategory, err := s.repo.ValueByCategory(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading category values")
	}

	report := &Report{
		TotalProducts: products,
		TotalUnits:    units,
		LowStock:      low,
		ZeroStock:     zero,
		ByCategory:    byCategory,
		CostValue:     decimal.Zero,
		SaleValue:     decimal.Zero,
	}
	for _, row := range byCategory {
		report.CostValue = report.CostValue.Add(row.CostValue)
		report.SaleValue = report.SaleValue.Add(row.SaleValue)
	}
	return report, nil
}

// Suggestions recommends purchases that bring each low product back to twice
// its reorder threshold.
func (s *service) Suggestions(ctx context.Context) ([]Suggestion, error) {
	low, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading low stock")
	}
	zero, err := s.repo.ZeroStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading zero stock")
	}

	candidates := append(zero, low...)
	suggestions := make([]Suggestion, 0, len(candidates))
	for _, product := range candidates {
		target := product.ReorderThreshold * 2
		if target <= product.Quantity {
			target = product.Quantity + 1
		}
		recommended := target - product.Quantity
		suggestions = append(suggestions, Suggestion{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       product.Quantity,
			Threshold:      product.ReorderThreshold,
			RecommendedQty: recommended,
			EstimatedCost:  product.CostPrice.Mul(decimal.NewFromInt(int64(recommended))),
		})
	}
	return suggestions, nil
}

// move applies a signed delta and records the movement inside one
// transaction.
func (s *service) move(ctx context.Context, actor string, productID uint, movementType enums.StockMovementType, delta int, source enums.StockMovementSource, reason string) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
		}

		affected, err := repo.AdjustQuantity(ctx, product.ID, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjusting quantity")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")
		}

		after, err := repo.QuantityOf(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading quantity")
		}

		movement = s.buildMovement(product.ID, movementType, delta, after, source, reason, nil)
		movement.ActorLogin = actor
		if err := repo.InsertMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording movement")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err)
	}
	return movement, nil
}

func (s *service) buildMovement(productID uint, movementType enums.StockMovementType, delta, after int, source enums.StockMovementSource, reason string, saleID *uint) *models.StockMovement {
	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	movement := &models.StockMovement{
		ProductID:     productID,
		Type:          movementType,
		Source:        source,
		Quantity:      quantity,
		QuantityAfter: after,
		SaleID:        saleID,
		OccurredAt:    s.now().UTC(),
	}
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		movement.Reason = &trimmed
	}
	return movement
}

func (s *service) auditMovement(ctx context.Context, actor string, movement *models.StockMovement) {
	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleStock,
		Action: string(movement.Type),
		Detail: fmt.Sprintf("product %d qty %d after %d source %s",
			movement.ProductID, movement.Quantity, movement.QuantityAfter, movement.Source),
	})
}

// asTyped keeps typed errors raised inside transactions intact instead of
// re-wrapping them.
func asTyped(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock transaction failed")
}
