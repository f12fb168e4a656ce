package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

// CreateInput holds the fields for a new category.
type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput carries the optional fields of a partial update.
type UpdateInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// Service exposes catalog category management.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInput) (*models.Category, error)
	Get(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context, onlyActive bool) ([]models.Category, error)
	Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Category, error)
	Delete(ctx context.Context, actor string, id uint) error
}

type service struct {
	repo  Repository
	trail audit.Recorder
}

// NewService builds the category service.
func NewService(repo Repository, trail audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, trail: trail}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.Category{Name: name, IsActive: true}
	if description := strings.TrimSpace(input.Description); description != "" {
		category.Description = &description
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating category")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCategories,
		Action: "created",
		Detail: fmt.Sprintf("category %d %s", category.ID, category.Name),
	})
	return category, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Category, error) {
	return s.findCategory(ctx, id)
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.Category, error) {
	rows, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing categories")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Category, error) {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
		changes = append(changes, "name")
	}
	if input.Description != nil {
		if description := strings.TrimSpace(*input.Description); description != "" {
			category.Description = &description
		} else {
			category.Description = nil
		}
		changes = append(changes, "description")
	}
	if input.Active != nil {
		category.IsActive = *input.Active
		changes = append(changes, "is_active")
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating category")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCategories,
		Action: "updated",
		Detail: fmt.Sprintf("category %d fields %s", category.ID, strings.Join(changes, ",")),
	})
	return category, nil
}

// Delete hard-deletes a category. Categories referenced by products cannot
// be removed; deactivate them instead.
func (s *service) Delete(ctx context.Context, actor string, id uint) error {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return err
	}

	products, err := s.repo.CountProducts(ctx, category.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting category products")
	}
	if products > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has products")
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting category")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCategories,
		Action: "deleted",
		Detail: fmt.Sprintf("category %d %s", category.ID, category.Name),
	})
	return nil
}

func (s *service) findCategory(ctx context.Context, id uint) (*models.Category, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading category")
	}
	return category, nil
}
