package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// CreateInput holds the fields for a new catalog product.
type CreateInput struct {
	Name             string
	Description      string
	Barcode          string
	CategoryID       *uint
	CostPrice        decimal.Decimal
	SalePrice        decimal.Decimal
	Quantity         int
	ReorderThreshold int
}

// UpdateInput carries the optional fields of a partial update. Quantity is
// deliberately absent; on-hand changes go through stock movements.
type UpdateInput struct {
	Name             *string
	Description      *string
	Barcode          *string
	CategoryID       *uint
	ClearCategory    bool
	CostPrice        *decimal.Decimal
	SalePrice        *decimal.Decimal
	ReorderThreshold *int
	Active           *bool
}

// ListResult is one page of products.
type ListResult struct {
	Products []models.Product `json:"products"`
	Page     pagination.Page  `json:"page"`
}

// Service exposes catalog product management.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, actor string, id uint) error
}

type service struct {
	repo  Repository
	trail audit.Recorder
	now   func() time.Time
}

// NewService builds the product service.
func NewService(repo Repository, trail audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, trail: trail, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.SalePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
	}
	if input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.ReorderThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder threshold cannot be negative")
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		Name:             name,
		CategoryID:       input.CategoryID,
		CostPrice:        input.CostPrice,
		SalePrice:        input.SalePrice,
		Quantity:         input.Quantity,
		ReorderThreshold: input.ReorderThreshold,
		IsActive:         true,
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		product.Description = &description
	}
	if barcode := strings.TrimSpace(input.Barcode); barcode != "" {
		product.Barcode = &barcode
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "barcode") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating product")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleProducts,
		Action: "created",
		Detail: fmt.Sprintf("product %d %s", product.ID, product.Name),
	})
	return product, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.findProduct(ctx, id)
}

func (s *service) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	code := strings.TrimSpace(barcode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.FindByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}
	return &ListResult{
		Products: rows,
		Page:     pagination.PageFor(filter.Page, total),
	}, nil
}

func (s *service) Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
		changes = append(changes, "name")
	}
	if input.Description != nil {
		if description := strings.TrimSpace(*input.Description); description != "" {
			product.Description = &description
		} else {
			product.Description = nil
		}
		changes = append(changes, "description")
	}
	if input.Barcode != nil {
		if barcode := strings.TrimSpace(*input.Barcode); barcode != "" {
			product.Barcode = &barcode
		} else {
			product.Barcode = nil
		}
		changes = append(changes, "barcode")
	}
	if input.ClearCategory {
		product.CategoryID = nil
		product.Category = nil
		changes = append(changes, "category_id")
	} else if input.CategoryID != nil {
		if err := s.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
		product.Category = nil
		changes = append(changes, "category_id")
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price cannot be negative")
		}
		product.CostPrice = *input.CostPrice
		changes = append(changes, "cost_price")
	}
	if input.SalePrice != nil {
		if !input.SalePrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
		}
		product.SalePrice = *input.SalePrice
		changes = append(changes, "sale_price")
	}
	if input.ReorderThreshold != nil {
		if *input.ReorderThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder threshold cannot be negative")
		}
		product.ReorderThreshold = *input.ReorderThreshold
		changes = append(changes, "reorder_threshold")
	}
	if input.Active != nil {
		product.IsActive = *input.Active
		changes = append(changes, "is_active")
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "barcode") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleProducts,
		Action: "updated",
		Detail: fmt.Sprintf("product %d fields %s", product.ID, strings.Join(changes, ",")),
	})
	return product, nil
}

// Delete deactivates a product. Rows stay behind their sale items for
// history, so deletion never removes them outright.
func (s *service) Delete(ctx context.Context, actor string, id uint) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, product.ID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating product")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleProducts,
		Action: "deleted",
		Detail: fmt.Sprintf("product %d %s", product.ID, product.Name),
	})
	return nil
}

func (s *service) findProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if product.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) checkCategory(ctx context.Context, categoryID uint) error {
	exists, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking category")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	return nil
}
