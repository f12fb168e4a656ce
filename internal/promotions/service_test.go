package promotions

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

type stubPromotionRepo struct {
	promotions  map[uint]*models.Promotion
	createErr   error
	references  int64
	deleted     []uint
	dueStart    []models.Promotion
	dueEnd      []models.Promotion
	statusEdits map[uint]enums.PromotionStatus
}

func newStubPromotionRepo() *stubPromotionRepo {
	return &stubPromotionRepo{
		promotions:  map[uint]*models.Promotion{},
		statusEdits: map[uint]enums.PromotionStatus{},
	}
}

func (s *stubPromotionRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPromotionRepo) Create(_ context.Context, promotion *models.Promotion) error {
	if s.createErr != nil {
		return s.createErr
	}
	promotion.ID = uint(len(s.promotions) + 1)
	s.promotions[promotion.ID] = promotion
	return nil
}

func (s *stubPromotionRepo) FindByID(_ context.Context, id uint) (*models.Promotion, error) {
	promotion, ok := s.promotions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *promotion
	return &copied, nil
}

func (s *stubPromotionRepo) List(_ context.Context, filter ListFilter) ([]models.Promotion, error) {
	var rows []models.Promotion
	for _, promotion := range s.promotions {
		if filter.Status != nil && promotion.Status != *filter.Status {
			continue
		}
		if filter.ActiveOn != nil {
			at := *filter.ActiveOn
			if promotion.Status != enums.PromotionStatusActive ||
				promotion.StartsOn.After(at) || promotion.EndsOn.Before(at) {
				continue
			}
		}
		rows = append(rows, *promotion)
	}
	return rows, nil
}

func (s *stubPromotionRepo) Update(_ context.Context, promotion *models.Promotion) error {
	s.promotions[promotion.ID] = promotion
	return nil
}

func (s *stubPromotionRepo) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	delete(s.promotions, id)
	return nil
}

func (s *stubPromotionRepo) CountSaleItems(context.Context, uint) (int64, error) {
	return s.references, nil
}

func (s *stubPromotionRepo) DueForActivation(context.Context, time.Time) ([]models.Promotion, error) {
	return s.dueStart, nil
}

func (s *stubPromotionRepo) DueForConclusion(context.Context, time.Time) ([]models.Promotion, error) {
	return s.dueEnd, nil
}

func (s *stubPromotionRepo) UpdateStatus(_ context.Context, id uint, status enums.PromotionStatus) error {
	s.statusEdits[id] = status
	return nil
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

func value(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func window(days int) (time.Time, time.Time) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, days)
}

func TestCreateValidatesDateRangeAndValue(t *testing.T) {
	svc := newTestService(t, newStubPromotionRepo(), &stubRecorder{})
	start, end := window(7)

	_, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:     "Black Friday",
		Type:     enums.PromotionTypePercentage,
		Value:    value("10"),
		StartsOn: end,
		EndsOn:   start,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on inverted range, got %v", err)
	}

	_, err = svc.Create(context.Background(), "maria", CreateInput{
		Name:     "Black Friday",
		Type:     enums.PromotionTypePercentage,
		Value:    value("140"),
		StartsOn: start,
		EndsOn:   end,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on 140%%, got %v", err)
	}
}

func TestCreateStartsPlanned(t *testing.T) {
	repo := newStubPromotionRepo()
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)
	start, end := window(7)

	promotion, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:     " Black Friday ",
		Type:     enums.PromotionTypeFixed,
		Value:    value("25.00"),
		StartsOn: start,
		EndsOn:   end,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promotion.Status != enums.PromotionStatusPlanned {
		t.Fatalf("expected planned status, got %s", promotion.Status)
	}
	if promotion.Name != "Black Friday" {
		t.Fatalf("expected trimmed name, got %q", promotion.Name)
	}
	if len(trail.entries) != 1 || trail.entries[0].Module != enums.AuditModulePromotions {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestDeleteBlockedWhileSaleItemsReference(t *testing.T) {
	repo := newStubPromotionRepo()
	start, end := window(7)
	repo.promotions[1] = &models.Promotion{ID: 1, Name: "Black Friday", StartsOn: start, EndsOn: end}
	repo.references = 5

	svc := newTestService(t, repo, &stubRecorder{})

	err := svc.Delete(context.Background(), "maria", 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("promotion must not be deleted")
	}
}

func activePromotion(id uint, name string, kind enums.PromotionType, amount string) *models.Promotion {
	return &models.Promotion{
		ID:       id,
		Name:     name,
		Type:     kind,
		Value:    value(amount),
		Status:   enums.PromotionStatusActive,
		StartsOn: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestQuotePicksBestDiscountPerItem(t *testing.T) {
	repo := newStubPromotionRepo()
	repo.promotions[1] = activePromotion(1, "10 off", enums.PromotionTypePercentage, "10")
	repo.promotions[2] = activePromotion(2, "R$5 off", enums.PromotionTypeFixed, "5.00")
	repo.promotions[3] = activePromotion(3, "Kit", enums.PromotionTypeBundle, "0")

	svc := newTestService(t, repo, &stubRecorder{})

	quote, err := svc.QuoteBestDiscount(context.Background(), []QuoteItem{
		{ProductID: 7, UnitPrice: value("100.00"), Quantity: 2},
		{ProductID: 8, UnitPrice: value("20.00"), Quantity: 1},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(quote.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(quote.Lines))
	}

	// 10% of 100.00 beats the fixed R$5
	first := quote.Lines[0]
	if first.PromotionID == nil || *first.PromotionID != 1 {
		t.Fatalf("expected percentage winner on line 1, got %+v", first)
	}
	if !first.DiscountedPrice.Equal(value("90.00")) || !first.Discount.Equal(value("20.00")) {
		t.Fatalf("unexpected percentage line %+v", first)
	}

	// the fixed R$5 beats 10% of 20.00
	second := quote.Lines[1]
	if second.PromotionID == nil || *second.PromotionID != 2 {
		t.Fatalf("expected fixed winner on line 2, got %+v", second)
	}
	if !second.DiscountedPrice.Equal(value("15.00")) || !second.Discount.Equal(value("5.00")) {
		t.Fatalf("unexpected fixed line %+v", second)
	}

	if !quote.TotalDiscount.Equal(value("25.00")) {
		t.Fatalf("unexpected total discount %s", quote.TotalDiscount)
	}
}

func TestQuoteCapsFixedDiscountAtUnitPrice(t *testing.T) {
	repo := newStubPromotionRepo()
	repo.promotions[1] = activePromotion(1, "R$5 off", enums.PromotionTypeFixed, "5.00")

	svc := newTestService(t, repo, &stubRecorder{})

	quote, err := svc.QuoteBestDiscount(context.Background(), []QuoteItem{
		{ProductID: 7, UnitPrice: value("3.00"), Quantity: 2},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	line := quote.Lines[0]
	if !line.DiscountedPrice.IsZero() || !line.Discount.Equal(value("6.00")) {
		t.Fatalf("expected price floored at zero, got %+v", line)
	}
}

func TestQuoteSkipsBundlesAndInactivePromotions(t *testing.T) {
	repo := newStubPromotionRepo()
	repo.promotions[1] = activePromotion(1, "Kit", enums.PromotionTypeBundle, "0")
	concluded := activePromotion(2, "old 50 off", enums.PromotionTypePercentage, "50")
	concluded.Status = enums.PromotionStatusConcluded
	repo.promotions[2] = concluded

	svc := newTestService(t, repo, &stubRecorder{})

	quote, err := svc.QuoteBestDiscount(context.Background(), []QuoteItem{
		{ProductID: 7, UnitPrice: value("50.00"), Quantity: 1},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	line := quote.Lines[0]
	if line.PromotionID != nil || !line.Discount.IsZero() || !line.DiscountedPrice.Equal(value("50.00")) {
		t.Fatalf("expected an undiscounted line, got %+v", line)
	}
}

func TestTransitionStatusesSweep(t *testing.T) {
	repo := newStubPromotionRepo()
	repo.dueStart = []models.Promotion{{ID: 1, Status: enums.PromotionStatusPlanned}}
	repo.dueEnd = []models.Promotion{
		{ID: 2, Status: enums.PromotionStatusActive},
		{ID: 3, Status: enums.PromotionStatusPlanned},
	}

	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	result, err := svc.TransitionStatuses(context.Background())
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.Activated != 1 || result.Concluded != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if repo.statusEdits[1] != enums.PromotionStatusActive {
		t.Fatal("promotion 1 should be activated")
	}
	if repo.statusEdits[2] != enums.PromotionStatusConcluded || repo.statusEdits[3] != enums.PromotionStatusConcluded {
		t.Fatalf("expired promotions should be concluded, got %+v", repo.statusEdits)
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "status_sweep" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestTransitionStatusesQuietWhenNothingDue(t *testing.T) {
	trail := &stubRecorder{}
	svc := newTestService(t, newStubPromotionRepo(), trail)

	result, err := svc.TransitionStatuses(context.Background())
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.Activated != 0 || result.Concluded != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(trail.entries) != 0 {
		t.Fatal("no audit entry expected for an empty sweep")
	}
}
