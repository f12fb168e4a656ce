package sales

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

type fakeTransactor struct{}

func (fakeTransactor) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSaleRepo struct {
	products    map[uint]*models.Product
	promotions  map[uint]*models.Promotion
	customers   map[uint]bool
	decremented map[uint]int
	restored    map[uint]int
	denyProduct uint
	sales       []*models.Sale
	movements   []*models.StockMovement
	storedSale  *models.Sale
	deletedSale uint

	listRows  []models.Sale
	listTotal int64

	count    int64
	revenue  decimal.Decimal
	distinct int64
	payments []PaymentBreakdown
	top      []TopProduct
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		products:    map[uint]*models.Product{},
		promotions:  map[uint]*models.Promotion{},
		customers:   map[uint]bool{},
		decremented: map[uint]int{},
		restored:    map[uint]int{},
	}
}

func (s *stubSaleRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubSaleRepo) FindProduct(_ context.Context, id uint) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *stubSaleRepo) FindPromotion(_ context.Context, id uint) (*models.Promotion, error) {
	promotion, ok := s.promotions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *promotion
	return &copied, nil
}

func (s *stubSaleRepo) CustomerExists(_ context.Context, id uint) (bool, error) {
	return s.customers[id], nil
}

func (s *stubSaleRepo) DecrementStock(_ context.Context, productID uint, quantity int) (int64, error) {
	if productID == s.denyProduct {
		return 0, nil
	}
	s.decremented[productID] += quantity
	if product, ok := s.products[productID]; ok {
		product.Quantity -= quantity
	}
	return 1, nil
}

func (s *stubSaleRepo) RestoreStock(_ context.Context, productID uint, quantity int) error {
	s.restored[productID] += quantity
	if product, ok := s.products[productID]; ok {
		product.Quantity += quantity
	}
	return nil
}

func (s *stubSaleRepo) QuantityOf(_ context.Context, productID uint) (int, error) {
	if product, ok := s.products[productID]; ok {
		return product.Quantity, nil
	}
	return 0, nil
}

func (s *stubSaleRepo) InsertSale(_ context.Context, sale *models.Sale) error {
	sale.ID = uint(len(s.sales) + 1)
	s.sales = append(s.sales, sale)
	return nil
}

func (s *stubSaleRepo) InsertMovement(_ context.Context, movement *models.StockMovement) error {
	s.movements = append(s.movements, movement)
	return nil
}

func (s *stubSaleRepo) FindSale(_ context.Context, id uint) (*models.Sale, error) {
	if s.storedSale == nil || s.storedSale.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.storedSale
	return &copied, nil
}

func (s *stubSaleRepo) DeleteSale(_ context.Context, id uint) error {
	s.deletedSale = id
	return nil
}

func (s *stubSaleRepo) List(_ context.Context, filter ListFilter) ([]models.Sale, int64, error) {
	return s.listRows, s.listTotal, nil
}

func (s *stubSaleRepo) CountAndRevenue(context.Context, time.Time, time.Time) (int64, decimal.Decimal, error) {
	return s.count, s.revenue, nil
}

func (s *stubSaleRepo) DistinctCustomers(context.Context, time.Time, time.Time) (int64, error) {
	return s.distinct, nil
}

func (s *stubSaleRepo) PaymentBreakdown(context.Context, time.Time, time.Time) ([]PaymentBreakdown, error) {
	return s.payments, nil
}

func (s *stubSaleRepo) TopProducts(context.Context, time.Time, time.Time, int) ([]TopProduct, error) {
	return s.top, nil
}

type stubRecorder struct {
	entries []audit.RecordInput
}

func (s *stubRecorder) Record(_ context.Context, input audit.RecordInput) {
	s.entries = append(s.entries, input)
}

func newTestService(t *testing.T, repo Repository, trail audit.Recorder) Service {
	t.Helper()
	svc, err := NewService(fakeTransactor{}, repo, trail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestRegisterCommitsSaleAndMovements(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("199.90"), Quantity: 10, IsActive: true}
	repo.products[9] = &models.Product{ID: 9, Name: "Serra", SalePrice: price("80.00"), Quantity: 5, IsActive: true}
	repo.customers[3] = true

	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	customer := uint(3)
	sale, err := svc.Register(context.Background(), "maria", RegisterInput{
		CustomerID:    &customer,
		PaymentMethod: enums.PaymentMethodPix,
		Items: []ItemInput{
			{ProductID: 8, Quantity: 2},
			{ProductID: 9, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !sale.Total.Equal(price("479.80")) {
		t.Fatalf("unexpected total %s", sale.Total)
	}
	if repo.decremented[8] != 2 || repo.decremented[9] != 1 {
		t.Fatalf("unexpected decrements %+v", repo.decremented)
	}
	if len(repo.movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(repo.movements))
	}
	for _, movement := range repo.movements {
		if movement.Source != enums.StockMovementSourceSale || movement.Type != enums.StockMovementTypeOut {
			t.Fatalf("unexpected movement %+v", movement)
		}
		if movement.SaleID == nil || *movement.SaleID != sale.ID {
			t.Fatal("movement not linked to sale")
		}
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "registered" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestRegisterFailsWhenGuardRejects(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("199.90"), Quantity: 10, IsActive: true}
	repo.denyProduct = 8

	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 2}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRegisterRejectsOversoldItemUpfront(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("199.90"), Quantity: 1, IsActive: true}

	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 3}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.sales) != 0 {
		t.Fatal("sale must not be inserted")
	}
}

func TestRegisterRejectsInactiveProductAndEmptyItems(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("199.90"), Quantity: 10, IsActive: false}

	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on empty items, got %v", err)
	}
}

func TestRegisterAppliesPercentagePromotion(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("200.00"), Quantity: 10, IsActive: true}
	repo.promotions[2] = &models.Promotion{ID: 2, Type: enums.PromotionTypePercentage, Value: price("10"), Status: enums.PromotionStatusActive}

	svc := newTestService(t, repo, &stubRecorder{})

	promotion := uint(2)
	sale, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 1, PromotionID: &promotion}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !sale.Items[0].UnitPrice.Equal(price("180.00")) {
		t.Fatalf("expected discounted price 180.00, got %s", sale.Items[0].UnitPrice)
	}
}

func TestRegisterRejectsInactivePromotionAndUnpricedBundle(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", SalePrice: price("200.00"), Quantity: 10, IsActive: true}
	repo.promotions[2] = &models.Promotion{ID: 2, Type: enums.PromotionTypePercentage, Value: price("10"), Status: enums.PromotionStatusPlanned}
	repo.promotions[3] = &models.Promotion{ID: 3, Type: enums.PromotionTypeBundle, Status: enums.PromotionStatusActive}

	svc := newTestService(t, repo, &stubRecorder{})

	planned := uint(2)
	_, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 1, PromotionID: &planned}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for planned promotion, got %v", err)
	}

	bundle := uint(3)
	_, err = svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 1, PromotionID: &bundle}},
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unpriced bundle, got %v", err)
	}

	bundlePrice := price("150.00")
	sale, err := svc.Register(context.Background(), "maria", RegisterInput{
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []ItemInput{{ProductID: 8, Quantity: 1, PromotionID: &bundle, UnitPrice: &bundlePrice}},
	})
	if err != nil {
		t.Fatalf("register priced bundle: %v", err)
	}
	if !sale.Items[0].UnitPrice.Equal(bundlePrice) {
		t.Fatalf("expected bundle price kept, got %s", sale.Items[0].UnitPrice)
	}
}

func TestReverseRestoresQuantitiesAndDeletes(t *testing.T) {
	repo := newStubSaleRepo()
	repo.products[8] = &models.Product{ID: 8, Name: "Furadeira", Quantity: 8}
	repo.storedSale = &models.Sale{
		ID:    5,
		Total: price("399.80"),
		Items: []models.SaleItem{
			{SaleID: 5, ProductID: 8, Quantity: 2, UnitPrice: price("199.90"), Subtotal: price("399.80")},
		},
	}

	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	err := svc.Reverse(context.Background(), "maria", ReverseInput{SaleID: 5, Reason: "customer returned"})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if repo.restored[8] != 2 {
		t.Fatalf("expected 2 units restored, got %d", repo.restored[8])
	}
	if repo.deletedSale != 5 {
		t.Fatal("sale not deleted")
	}
	if len(repo.movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(repo.movements))
	}
	movement := repo.movements[0]
	if movement.Source != enums.StockMovementSourceSaleReversal || movement.Type != enums.StockMovementTypeIn {
		t.Fatalf("unexpected movement %+v", movement)
	}
	if movement.Reason == nil || *movement.Reason != "customer returned" {
		t.Fatal("reason not preserved")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "reversed" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestReverseUnknownSale(t *testing.T) {
	svc := newTestService(t, newStubSaleRepo(), &stubRecorder{})

	err := svc.Reverse(context.Background(), "maria", ReverseInput{SaleID: 99, Reason: "x"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMetricsComputesAverageTicket(t *testing.T) {
	repo := newStubSaleRepo()
	repo.count = 4
	repo.revenue = price("1000.00")
	repo.distinct = 3

	svc := newTestService(t, repo, &stubRecorder{})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	metrics, err := svc.MetricsForPeriod(context.Background(), from, to)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if !metrics.AverageTicket.Equal(price("250.00")) {
		t.Fatalf("unexpected average ticket %s", metrics.AverageTicket)
	}
	if metrics.DistinctCustomers != 3 {
		t.Fatalf("unexpected distinct customers %d", metrics.DistinctCustomers)
	}

	_, err = svc.MetricsForPeriod(context.Background(), to, from)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on inverted period, got %v", err)
	}
}
