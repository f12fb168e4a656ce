package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

type stubProductRepo struct {
	createFn         func(ctx context.Context, product *models.Product) error
	findByIDFn       func(ctx context.Context, id uint) (*models.Product, error)
	findByBarcodeFn  func(ctx context.Context, barcode string) (*models.Product, error)
	listFn           func(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	updateFn         func(ctx context.Context, product *models.Product) error
	softDeleteFn     func(ctx context.Context, id uint, at time.Time) error
	categoryExistsFn func(ctx context.Context, categoryID uint) (bool, error)
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) error {
	if s.createFn != nil {
		return s.createFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if s.findByBarcodeFn != nil {
		return s.findByBarcodeFn(ctx, barcode)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *stubProductRepo) Update(ctx context.Context, product *models.Product) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	if s.softDeleteFn != nil {
		return s.softDeleteFn(ctx, id, at)
	}
	return nil
}

func (s *stubProductRepo) CategoryExists(ctx context.Context, categoryID uint) (bool, error) {
	if s.categoryExistsFn != nil {
		return s.categoryExistsFn(ctx, categoryID)
	}
	return true, nil
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

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCreateValidatesPrices(t *testing.T) {
	svc := newTestService(t, &stubProductRepo{}, &stubRecorder{})

	_, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:      "Furadeira",
		SalePrice: decimal.Zero,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on zero sale price, got %v", err)
	}

	_, err = svc.Create(context.Background(), "maria", CreateInput{
		Name:      "Furadeira",
		CostPrice: price("-1"),
		SalePrice: price("10"),
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on negative cost, got %v", err)
	}
}

func TestCreatePersistsNormalizedProduct(t *testing.T) {
	var created *models.Product
	repo := &stubProductRepo{
		createFn: func(_ context.Context, product *models.Product) error {
			product.ID = 8
			created = product
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	category := uint(2)
	product, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:             "  Furadeira 500W ",
		Barcode:          " 7891234567895 ",
		CategoryID:       &category,
		CostPrice:        price("120.00"),
		SalePrice:        price("199.90"),
		Quantity:         10,
		ReorderThreshold: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.Name != "Furadeira 500W" {
		t.Fatalf("expected trimmed name, got %q", product.Name)
	}
	if created.Barcode == nil || *created.Barcode != "7891234567895" {
		t.Fatal("barcode not normalized")
	}
	if !created.IsActive {
		t.Fatal("new products start active")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "created" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	repo := &stubProductRepo{
		categoryExistsFn: func(context.Context, uint) (bool, error) { return false, nil },
	}
	svc := newTestService(t, repo, &stubRecorder{})

	category := uint(99)
	_, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:       "Furadeira",
		CategoryID: &category,
		SalePrice:  price("10"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMapsDuplicateBarcode(t *testing.T) {
	repo := &stubProductRepo{
		createFn: func(context.Context, *models.Product) error {
			return errors.New("UNIQUE constraint failed: products.barcode")
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:      "Furadeira",
		Barcode:   "7891234567895",
		SalePrice: price("10"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateDoesNotTouchQuantity(t *testing.T) {
	var saved *models.Product
	repo := &stubProductRepo{
		findByIDFn: func(context.Context, uint) (*models.Product, error) {
			return &models.Product{ID: 8, Name: "Furadeira", Quantity: 10, SalePrice: price("199.90"), IsActive: true}, nil
		},
		updateFn: func(_ context.Context, product *models.Product) error {
			saved = product
			return nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	newPrice := price("179.90")
	_, err := svc.Update(context.Background(), "maria", 8, UpdateInput{SalePrice: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Quantity != 10 {
		t.Fatal("quantity must not change through update")
	}
	if !saved.SalePrice.Equal(newPrice) {
		t.Fatal("sale price not applied")
	}
}

func TestDeleteOnlyDeactivates(t *testing.T) {
	var deactivated uint
	repo := &stubProductRepo{
		findByIDFn: func(context.Context, uint) (*models.Product, error) {
			return &models.Product{ID: 8, Name: "Furadeira", IsActive: true}, nil
		},
		softDeleteFn: func(_ context.Context, id uint, _ time.Time) error {
			deactivated = id
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	if err := svc.Delete(context.Background(), "maria", 8); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deactivated != 8 {
		t.Fatal("expected soft delete")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "deleted" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestGetByBarcodeUnknown(t *testing.T) {
	svc := newTestService(t, &stubProductRepo{}, &stubRecorder{})

	_, err := svc.GetByBarcode(context.Background(), "0000000000000")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetHidesSoftDeletedProducts(t *testing.T) {
	deletedAt := time.Now()
	repo := &stubProductRepo{
		findByIDFn: func(context.Context, uint) (*models.Product, error) {
			return &models.Product{ID: 8, Name: "Furadeira", DeletedAt: &deletedAt}, nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Get(context.Background(), 8)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
