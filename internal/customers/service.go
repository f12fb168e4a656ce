package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
	"github.com/electrogest/electrogest-backend/pkg/security"
)

// SearchParams filters the customer listing.
type SearchParams struct {
	Query      string
	OnlyActive bool
	Page       pagination.Params
}

// Service exposes customer management.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInput) (*View, error)
	Get(ctx context.Context, id uint) (*View, error)
	GetByTaxID(ctx context.Context, taxID string) (*View, error)
	Search(ctx context.Context, params SearchParams) (*ListResult, error)
	Update(ctx context.Context, actor string, id uint, input UpdateInput) (*View, error)
	Delete(ctx context.Context, actor string, id uint) error
	Stats(ctx context.Context) (*Stats, error)
	Import(ctx context.Context, actor string, input ImportInput) (*ImportSummary, error)
}

type service struct {
	repo  Repository
	trail audit.Recorder
	now   func() time.Time
}

// NewService builds the customer service.
func NewService(repo Repository, trail audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, trail: trail, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*View, error) {
	customer, err := buildCustomer(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "tax_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tax id already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating customer")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCustomers,
		Action: "created",
		Detail: fmt.Sprintf("customer %d %s", customer.ID, customer.Name),
	})

	view := ToView(customer)
	return &view, nil
}

func (s *service) Get(ctx context.Context, id uint) (*View, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	view := ToView(customer)
	return &view, nil
}

func (s *service) GetByTaxID(ctx context.Context, taxID string) (*View, error) {
	cleaned := security.CleanTaxID(taxID)
	if err := security.ValidateTaxID(cleaned); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tax id")
	}
	customer, err := s.repo.FindByTaxID(ctx, cleaned)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading customer")
	}
	view := ToView(customer)
	return &view, nil
}

func (s *service) Search(ctx context.Context, params SearchParams) (*ListResult, error) {
	query := strings.TrimSpace(params.Query)
	if isDigits(security.CleanTaxID(query)) && len(security.CleanTaxID(query)) == 11 {
		query = security.CleanTaxID(query)
	}

	rows, total, err := s.repo.Search(ctx, SearchFilter{
		Query:      query,
		OnlyActive: params.OnlyActive,
		Page:       params.Page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "searching customers")
	}
	return &ListResult{
		Customers: ToViews(rows),
		Page:      pagination.PageFor(params.Page, total),
	}, nil
}

func (s *service) Update(ctx context.Context, actor string, id uint, input UpdateInput) (*View, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, err := applyUpdate(customer, input)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "tax_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tax id already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating customer")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCustomers,
		Action: "updated",
		Detail: fmt.Sprintf("customer %d fields %s", customer.ID, strings.Join(changes, ",")),
	})

	view := ToView(customer)
	return &view, nil
}

// Delete deactivates a customer. Rows are never removed outright, and the
// delete is refused while sales reference the customer.
func (s *service) Delete(ctx context.Context, actor string, id uint) error {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return err
	}

	sales, err := s.repo.CountSales(ctx, customer.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting customer sales")
	}
	if sales > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("customer has %d linked sale(s)", sales))
	}

	if err := s.repo.SoftDelete(ctx, customer.ID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating customer")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCustomers,
		Action: "deleted",
		Detail: fmt.Sprintf("customer %d %s", customer.ID, customer.Name),
	})
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading customer stats")
	}
	return stats, nil
}

func (s *service) findCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading customer")
	}
	if customer.DeletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func buildCustomer(input CreateInput) (*models.Customer, error) {
	name := strings.ToUpper(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	customer := &models.Customer{Name: name, IsActive: true}

	if raw := strings.TrimSpace(input.TaxID); raw != "" {
		cleaned := security.CleanTaxID(raw)
		if err := security.ValidateTaxID(cleaned); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tax id")
		}
		customer.TaxID = &cleaned
	}
	customer.Email = optionalString(input.Email)
	customer.Phone = optionalString(input.Phone)
	customer.Address = optionalString(input.Address)
	customer.Notes = optionalString(input.Notes)
	return customer, nil
}

func applyUpdate(customer *models.Customer, input UpdateInput) ([]string, error) {
	var changes []string

	if input.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*input.Name))
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		customer.Name = name
		changes = append(changes, "name")
	}
	if input.TaxID != nil {
		raw := strings.TrimSpace(*input.TaxID)
		if raw == "" {
			customer.TaxID = nil
		} else {
			cleaned := security.CleanTaxID(raw)
			if err := security.ValidateTaxID(cleaned); err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tax id")
			}
			customer.TaxID = &cleaned
		}
		changes = append(changes, "tax_id")
	}
	if input.Email != nil {
		customer.Email = optionalString(*input.Email)
		changes = append(changes, "email")
	}
	if input.Phone != nil {
		customer.Phone = optionalString(*input.Phone)
		changes = append(changes, "phone")
	}
	if input.Address != nil {
		customer.Address = optionalString(*input.Address)
		changes = append(changes, "address")
	}
	if input.Notes != nil {
		customer.Notes = optionalString(*input.Notes)
		changes = append(changes, "notes")
	}
	if input.Active != nil {
		customer.IsActive = *input.Active
		changes = append(changes, "is_active")
	}
	return changes, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
