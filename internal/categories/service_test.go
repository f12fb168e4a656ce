package categories

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

type stubCategoryRepo struct {
	createFn        func(ctx context.Context, category *models.Category) error
	findByIDFn      func(ctx context.Context, id uint) (*models.Category, error)
	listFn          func(ctx context.Context, onlyActive bool) ([]models.Category, error)
	updateFn        func(ctx context.Context, category *models.Category) error
	deleteFn        func(ctx context.Context, id uint) error
	countProductsFn func(ctx context.Context, categoryID uint) (int64, error)
}

func (s *stubCategoryRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	if s.createFn != nil {
		return s.createFn(ctx, category)
	}
	return nil
}

func (s *stubCategoryRepo) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) List(ctx context.Context, onlyActive bool) ([]models.Category, error) {
	if s.listFn != nil {
		return s.listFn(ctx, onlyActive)
	}
	return nil, nil
}

func (s *stubCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, category)
	}
	return nil
}

func (s *stubCategoryRepo) Delete(ctx context.Context, id uint) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubCategoryRepo) CountProducts(ctx context.Context, categoryID uint) (int64, error) {
	if s.countProductsFn != nil {
		return s.countProductsFn(ctx, categoryID)
	}
	return 0, nil
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

func TestCreateTrimsAndAudits(t *testing.T) {
	var created *models.Category
	repo := &stubCategoryRepo{
		createFn: func(_ context.Context, category *models.Category) error {
			category.ID = 3
			created = category
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	category, err := svc.Create(context.Background(), "maria", CreateInput{
		Name:        "  Eletrodomésticos ",
		Description: " Linha branca ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if category.Name != "Eletrodomésticos" {
		t.Fatalf("expected trimmed name, got %q", category.Name)
	}
	if created.Description == nil || *created.Description != "Linha branca" {
		t.Fatal("description not normalized")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "created" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestCreateMapsDuplicateName(t *testing.T) {
	repo := &stubCategoryRepo{
		createFn: func(context.Context, *models.Category) error {
			return errors.New("UNIQUE constraint failed: categories.name")
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	_, err := svc.Create(context.Background(), "maria", CreateInput{Name: "Ferramentas"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteBlockedWhileProductsReference(t *testing.T) {
	repo := &stubCategoryRepo{
		findByIDFn: func(context.Context, uint) (*models.Category, error) {
			return &models.Category{ID: 3, Name: "Ferramentas"}, nil
		},
		countProductsFn: func(context.Context, uint) (int64, error) { return 4, nil },
		deleteFn: func(context.Context, uint) error {
			t.Fatal("delete must not run while products reference the category")
			return nil
		},
	}
	svc := newTestService(t, repo, &stubRecorder{})

	err := svc.Delete(context.Background(), "maria", 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeleteRemovesEmptyCategory(t *testing.T) {
	deleted := false
	repo := &stubCategoryRepo{
		findByIDFn: func(context.Context, uint) (*models.Category, error) {
			return &models.Category{ID: 3, Name: "Ferramentas"}, nil
		},
		deleteFn: func(context.Context, uint) error {
			deleted = true
			return nil
		},
	}
	trail := &stubRecorder{}
	svc := newTestService(t, repo, trail)

	if err := svc.Delete(context.Background(), "maria", 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected hard delete")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != "deleted" {
		t.Fatalf("unexpected trail %+v", trail.entries)
	}
}

func TestUpdateUnknownCategory(t *testing.T) {
	svc := newTestService(t, &stubCategoryRepo{}, &stubRecorder{})

	active := false
	_, err := svc.Update(context.Background(), "maria", 99, UpdateInput{Active: &active})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
