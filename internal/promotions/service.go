package promotions

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
)

// CreateInput holds the fields for a new promotion.
type CreateInput struct {
	Name        string
	Description string
	Type        enums.PromotionType
	Value       decimal.Decimal
	StartsOn    time.Time
	EndsOn      time.Time
}

// UpdateInput carries the optional fields of a partial update.
type UpdateInput struct {
	Name        *string
	Description *string
	Value       *decimal.Decimal
	StartsOn    *time.Time
	EndsOn      *time.Time
	Status      *enums.PromotionStatus
}

// QuoteItem is one line submitted for a discount quote.
type QuoteItem struct {
	ProductID uint            `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// QuoteLine is the answer for one quote item, carrying the promotion that
// won the line, if any.
type QuoteLine struct {
	ProductID       uint                `json:"product_id"`
	PromotionID     *uint               `json:"promotion_id,omitempty"`
	PromotionName   string              `json:"promotion_name,omitempty"`
	Type            enums.PromotionType `json:"type,omitempty"`
	OriginalPrice   decimal.Decimal     `json:"original_price"`
	DiscountedPrice decimal.Decimal     `json:"discounted_price"`
	Discount        decimal.Decimal     `json:"discount"`
}

// Quote is the best-discount answer for a set of items.
type Quote struct {
	Lines         []QuoteLine     `json:"lines"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// TransitionResult reports one cron status sweep.
type TransitionResult struct {
	Activated int `json:"activated"`
	Concluded int `json:"concluded"`
}

// Service exposes promotion management.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInput) (*models.Promotion, error)
	Get(ctx context.Context, id uint) (*models.Promotion, error)
	List(ctx context.Context, status string, activeOnly bool) ([]models.Promotion, error)
	Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Promotion, error)
	Delete(ctx context.Context, actor string, id uint) error
	QuoteBestDiscount(ctx context.Context, items []QuoteItem) (*Quote, error)
	TransitionStatuses(ctx context.Context) (*TransitionResult, error)
}

type service struct {
	repo  Repository
	trail audit.Recorder
	now   func() time.Time
}

// NewService builds the promotion service.
func NewService(repo Repository, trail audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, trail: trail, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*models.Promotion, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion type")
	}
	if err := validateValue(input.Type, input.Value); err != nil {
		return nil, err
	}
	if input.EndsOn.Before(input.StartsOn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}

	promotion := &models.Promotion{
		Name:     name,
		Type:     input.Type,
		Value:    input.Value,
		StartsOn: input.StartsOn,
		EndsOn:   input.EndsOn,
		Status:   enums.PromotionStatusPlanned,
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		promotion.Description = &description
	}

	if err := s.repo.Create(ctx, promotion); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating promotion")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModulePromotions,
		Action: "created",
		Detail: fmt.Sprintf("promotion %d %s", promotion.ID, promotion.Name),
	})
	return promotion, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Promotion, error) {
	return s.findPromotion(ctx, id)
}

func (s *service) List(ctx context.Context, status string, activeOnly bool) ([]models.Promotion, error) {
	filter := ListFilter{}
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		parsed, err := enums.ParsePromotionStatus(trimmed)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		filter.Status = &parsed
	}
	if activeOnly {
		now := s.now().UTC()
		filter.ActiveOn = &now
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing promotions")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, actor string, id uint, input UpdateInput) (*models.Promotion, error) {
	promotion, err := s.findPromotion(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		promotion.Name = name
		changes = append(changes, "name")
	}
	if input.Description != nil {
		if description := strings.TrimSpace(*input.Description); description != "" {
			promotion.Description = &description
		} else {
			promotion.Description = nil
		}
		changes = append(changes, "description")
	}
	if input.Value != nil {
		if err := validateValue(promotion.Type, *input.Value); err != nil {
			return nil, err
		}
		promotion.Value = *input.Value
		changes = append(changes, "value")
	}
	if input.StartsOn != nil {
		promotion.StartsOn = *input.StartsOn
		changes = append(changes, "starts_on")
	}
	if input.EndsOn != nil {
		promotion.EndsOn = *input.EndsOn
		changes = append(changes, "ends_on")
	}
	if promotion.EndsOn.Before(promotion.StartsOn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		promotion.Status = *input.Status
		changes = append(changes, "status")
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, promotion); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating promotion")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModulePromotions,
		Action: "updated",
		Detail: fmt.Sprintf("promotion %d fields %s", promotion.ID, strings.Join(changes, ",")),
	})
	return promotion, nil
}

// Delete hard-deletes a promotion. Promotions referenced by sale items stay
// for history; cancel them instead.
func (s *service) Delete(ctx context.Context, actor string, id uint) error {
	promotion, err := s.findPromotion(ctx, id)
	if err != nil {
		return err
	}

	references, err := s.repo.CountSaleItems(ctx, promotion.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting promotion references")
	}
	if references > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is referenced by sales")
	}

	if err := s.repo.Delete(ctx, promotion.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting promotion")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModulePromotions,
		Action: "deleted",
		Detail: fmt.Sprintf("promotion %d %s", promotion.ID, promotion.Name),
	})
	return nil
}

// QuoteBestDiscount scans the active promotions and applies the largest
// per-unit discount to each line. Percentage and fixed promotions compete;
// bundles never price a line, the counter decides their value.
func (s *service) QuoteBestDiscount(ctx context.Context, items []QuoteItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote needs at least one item")
	}

	now := s.now().UTC()
	active, err := s.repo.List(ctx, ListFilter{ActiveOn: &now})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing active promotions")
	}

	quote := &Quote{TotalDiscount: decimal.Zero}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if !item.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}

		line := QuoteLine{
			ProductID:       item.ProductID,
			OriginalPrice:   item.UnitPrice,
			DiscountedPrice: item.UnitPrice,
			Discount:        decimal.Zero,
		}

		best := decimal.Zero
		var winner *models.Promotion
		for i := range active {
			promotion := &active[i]
			var discount decimal.Decimal
			switch promotion.Type {
			case enums.PromotionTypePercentage:
				discount = item.UnitPrice.Mul(promotion.Value).Div(decimal.NewFromInt(100))
			case enums.PromotionTypeFixed:
				discount = promotion.Value
			default:
				continue
			}
			if discount.GreaterThan(item.UnitPrice) {
				discount = item.UnitPrice
			}
			if discount.GreaterThan(best) {
				best = discount
				winner = promotion
			}
		}

		if winner != nil {
			id := winner.ID
			line.PromotionID = &id
			line.PromotionName = winner.Name
			line.Type = winner.Type
			line.DiscountedPrice = item.UnitPrice.Sub(best).Round(2)
			perUnit := item.UnitPrice.Sub(line.DiscountedPrice)
			line.Discount = perUnit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		}

		quote.TotalDiscount = quote.TotalDiscount.Add(line.Discount)
		quote.Lines = append(quote.Lines, line)
	}
	return quote, nil
}

// TransitionStatuses moves planned promotions whose window opened to active
// and expired ones to concluded. Run from the cron worker.
func (s *service) TransitionStatuses(ctx context.Context) (*TransitionResult, error) {
	now := s.now().UTC()
	result := &TransitionResult{}

	due, err := s.repo.DueForConclusion(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading expired promotions")
	}
	for _, promotion := range due {
		if err := s.repo.UpdateStatus(ctx, promotion.ID, enums.PromotionStatusConcluded); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "concluding promotion")
		}
		result.Concluded++
	}

	starting, err := s.repo.DueForActivation(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading starting promotions")
	}
	for _, promotion := range starting {
		if err := s.repo.UpdateStatus(ctx, promotion.ID, enums.PromotionStatusActive); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activating promotion")
		}
		result.Activated++
	}

	if result.Activated > 0 || result.Concluded > 0 {
		s.trail.Record(ctx, audit.RecordInput{
			Module: enums.AuditModulePromotions,
			Action: "status_sweep",
			Detail: fmt.Sprintf("activated %d concluded %d", result.Activated, result.Concluded),
		})
	}
	return result, nil
}

func (s *service) findPromotion(ctx context.Context, id uint) (*models.Promotion, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id is required")
	}
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading promotion")
	}
	return promotion, nil
}

func validateValue(promotionType enums.PromotionType, value decimal.Decimal) error {
	switch promotionType {
	case enums.PromotionTypePercentage:
		if !value.IsPositive() || value.GreaterThan(decimal.NewFromInt(100)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
		}
	case enums.PromotionTypeFixed:
		if !value.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed discount must be positive")
		}
	case enums.PromotionTypeBundle:
		if value.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "bundle value cannot be negative")
		}
	}
	return nil
}
