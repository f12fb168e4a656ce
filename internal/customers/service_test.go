package customers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

const validTaxID = "52998224725"

type stubCustomerRepo struct {
	createFn      func(ctx context.Context, customer *models.Customer) error
	findByIDFn    func(ctx context.Context, id uint) (*models.Customer, error)
	findByTaxIDFn func(ctx context.Context, taxID string) (*models.Customer, error)
	searchFn      func(ctx context.Context, filter SearchFilter) ([]models.Customer, int64, error)
	updateFn      func(ctx context.Context, customer *models.Customer) error
	softDeleteFn  func(ctx context.Context, id uint, at time.Time) error
	countSalesFn  func(ctx context.Context, customerID uint) (int64, error)
	statsFn       func(ctx context.Context) (*Stats, error)
}

func (s *stubCustomerRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	if s.createFn != nil {
		return s.createFn(ctx, customer)
	}
	return nil
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerRepo) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	if s.findByTaxIDFn != nil {
		return s.findByTaxIDFn(ctx, taxID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerRepo) Search(ctx context.Context, filter SearchFilter) ([]models.Customer, int64, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *stubCustomerRepo) Update(ctx context.Context, customer *models.Customer) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, customer)
	}
	return nil
}

func (s *stubCustomerRepo) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	if s.softDeleteFn != nil {
		return s.softDeleteFn(ctx, id, at)
	}
	return nil
}

func (s *stubCustomerRepo) CountSales(ctx context.Context, customerID uint) (int64, error) {
	if s.countSalesFn != nil {
		return s.countSalesFn(ctx, customerID)
	}
	return 0, nil
}

func (s *stubCustomerRepo) Stats(ctx context.Context) (*Stats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return &Stats{}, nil
}

type stubRecorder struct {
	entries []audit.RecordInput
}

func (s *stubRecorder) Record(_ context.Context, input audit.RecordInput) {
	s.entries = append(s.entries, input)
}

func newTestService(t *testing.T, repo Repository, trail audit.Recorder) Service {
	t.Helper()
	svc, err := NewService(repo, trail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateNormalizesNameAndTaxID(t *testing.T) {
	var created *models.Customer
	repo := &stubCustomerRepo{
		createFn: func(_ context.Context, customer *models.Customer) error {
			customer.ID = 11
			created = customer
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	view, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:  "  ana clara souza ",
		TaxID: "529.982.247-25",
		Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "ANA CLARA SOUZA" {
		t.Fatalf("expected uppercased name, got %q", created.Name)
	}
	if created.TaxID == nil || *created.TaxID != validTaxID {
		t.Fatalf("expected cleaned tax id, got %v", created.TaxID)
	}
	if view.TaxID == nil || *view.TaxID != "529.982.247-25" {
		t.Fatalf("expected formatted tax id in view, got %v", view.TaxID)
	}
	if len(trail.entries) != 1 || trail.entries[0].Module != enums.AuditModuleCustomers {
		t.Fatalf("expected audit entry, got %+v", trail.entries)
	}
}

func TestCreateRejectsInvalidTaxID(t *testing.T) {
	svc := newTestService(t, &stubCustomerRepo{}, &stubRecorder{})

	cases := []string{"123", "111.111.111-11", "529.982.247-26"}
	for _, taxID := range cases {
		_, err := svc.Create(context.Background(), "maria", CreateInput{Name: "Ana", TaxID: taxID})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", taxID, err)
		}
	}
}

func TestCreateMapsDuplicateTaxID(t *testing.T) {
	repo := &stubCustomerRepo{
		createFn: func(context.Context, *models.Customer) error {
			return errors.New("UNIQUE constraint failed: customers.tax_id")
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Create(context.Background(), "maria", CreateInput{Name: "Ana", TaxID: validTaxID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteRefusedWhileSalesReference(t *testing.T) {
	repo := &stubCustomerRepo{
		findByIDFn: func(context.Context, uint) (*models.Customer, error) {
			return &models.Customer{ID: 5, Name: "ANA", IsActive: true}, nil
		},
		countSalesFn: func(context.Context, uint) (int64, error) { return 3, nil },
		softDeleteFn: func(context.Context, uint, time.Time) error {
			t.Fatal("delete must be refused while sales reference the customer")
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	err := svc.Delete(context.Background(), "maria", 5)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(trail.entries) != 0 {
		t.Fatalf("refused delete must not audit, got %+v", trail.entries)
	}
}

func TestDeleteDeactivatesUnreferencedCustomer(t *testing.T) {
	softCalled := false
	repo := &stubCustomerRepo{
		findByIDFn: func(context.Context, uint) (*models.Customer, error) {
			return &models.Customer{ID: 5, Name: "ANA", IsActive: true}, nil
		},
		softDeleteFn: func(context.Context, uint, time.Time) error {
			softCalled = true
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	if err := svc.Delete(context.Background(), "maria", 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !softCalled {
		t.Fatal("expected soft delete")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "deleted" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	var saved *models.Customer
	repo := &stubCustomerRepo{
		findByIDFn: func(context.Context, uint) (*models.Customer, error) {
			phone := "11999990000"
			return &models.Customer{ID: 5, Name: "ANA", Phone: &phone, IsActive: true}, nil
		},
		updateFn: func(_ context.Context, customer *models.Customer) error {
			saved = customer
			return nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	email := "ana@example.com"
	_, err := svc.Update(context.Background(), "maria", 5, UpdateInput{Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Email == nil || *saved.Email != email {
		t.Fatal("email not applied")
	}
	if saved.Phone == nil || *saved.Phone != "11999990000" {
		t.Fatal("phone must be untouched")
	}
}

func TestSearchNormalizesTaxIDQuery(t *testing.T) {
	var gotFilter SearchFilter
	repo := &stubCustomerRepo{
		searchFn: func(_ context.Context, filter SearchFilter) ([]models.Customer, int64, error) {
			gotFilter = filter
			return []models.Customer{{ID: 1, Name: "ANA"}}, 1, nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	result, err := svc.Search(context.Background(), SearchParams{
		Query: "529.982.247-25",
		Page:  pagination.Params{Limit: 10},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotFilter.Query != validTaxID {
		t.Fatalf("expected cleaned digits query, got %q", gotFilter.Query)
	}
	if result.Page.Total != 1 || len(result.Customers) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestImportCreatesAndReportsRowErrors(t *testing.T) {
	var created []*models.Customer
	repo := &stubCustomerRepo{
		createFn: func(_ context.Context, customer *models.Customer) error {
			customer.ID = uint(len(created) + 1)
			created = append(created, customer)
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	csvBody := strings.Join([]string{
		"name,tax_id,email",
		"Ana Souza,529.982.247-25,ana@example.com",
		",,missing-name@example.com",
		"Joao Lima,111.444.777-35,",
	}, "\n")

	summary, err := svc.Import(context.Background(), "maria", ImportInput{
		Reader: strings.NewReader(csvBody),
		Policy: DuplicateCreateNew,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Created != 2 {
		t.Fatalf("expected 2 created, got %d", summary.Created)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Line != 3 {
		t.Fatalf("expected one error on line 3, got %+v", summary.Errors)
	}
	if len(trail.entries) == 0 || trail.entries[len(trail.entries)-1].Action != "imported" {
		t.Fatal("expected import audit entry")
	}
}

func TestImportSkipsDuplicatesUnderCreateNew(t *testing.T) {
	existing := &models.Customer{ID: 9, Name: "ANA"}
	taxID := validTaxID
	existing.TaxID = &taxID

	repo := &stubCustomerRepo{
		findByTaxIDFn: func(_ context.Context, id string) (*models.Customer, error) {
			if id == validTaxID {
				return existing, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		createFn: func(context.Context, *models.Customer) error {
			t.Fatal("must not create duplicates under create_new")
			return nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	summary, err := svc.Import(context.Background(), "maria", ImportInput{
		Reader: strings.NewReader("name,tax_id\nAna Souza,529.982.247-25\n"),
		Policy: DuplicateCreateNew,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Skipped != 1 || summary.Created != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestImportFillEmptyOnlyFillsMissingFields(t *testing.T) {
	email := "old@example.com"
	taxID := validTaxID
	existing := &models.Customer{ID: 9, Name: "ANA", TaxID: &taxID, Email: &email, IsActive: true}

	var saved *models.Customer
	repo := &stubCustomerRepo{
		findByTaxIDFn: func(context.Context, string) (*models.Customer, error) {
			copied := *existing
			return &copied, nil
		},
		findByIDFn: func(context.Context, uint) (*models.Customer, error) {
			copied := *existing
			return &copied, nil
		},
		updateFn: func(_ context.Context, customer *models.Customer) error {
			saved = customer
			return nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	summary, err := svc.Import(context.Background(), "maria", ImportInput{
		Reader: strings.NewReader("name,tax_id,email,phone\nAna,529.982.247-25,new@example.com,11988887777\n"),
		Policy: DuplicateFillEmpty,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Updated != 1 {
		t.Fatalf("expected one update, got %+v", summary)
	}
	if saved.Email == nil || *saved.Email != "old@example.com" {
		t.Fatal("existing email must be preserved")
	}
	if saved.Phone == nil || *saved.Phone != "11988887777" {
		t.Fatal("missing phone must be filled")
	}
}

func TestImportRejectsUnknownPolicyAndColumns(t *testing.T) {
	svc := newTestService(t, &stubCustomerRepo{}, &stubRecorder{})

	_, err := svc.Import(context.Background(), "maria", ImportInput{
		Reader: strings.NewReader("name\nAna\n"),
		Policy: "merge",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for policy, got %v", err)
	}

	_, err = svc.Import(context.Background(), "maria", ImportInput{
		Reader: strings.NewReader("name,favorite_color\nAna,blue\n"),
		Policy: DuplicateCreateNew,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for columns, got %v", err)
	}
}
