package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
)

// RecordInput describes one trail entry.
type RecordInput struct {
	Actor    string
	Module   enums.AuditModule
	Action   string
	Detail   string
	OriginIP string
}

// ListParams filters the admin trail listing.
type ListParams struct {
	Module string
	Actor  string
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// ListResult is a page of trail entries.
type ListResult struct {
	Entries []models.AuditEntry `json:"entries"`
	Page    pagination.Page     `json:"page"`
}

// Recorder is the write-side surface other services depend on.
type Recorder interface {
	Record(ctx context.Context, input RecordInput)
}

// Service exposes trail recording and the admin listing.
type Service interface {
	Recorder
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the trail service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Record appends one entry. Failures are logged, never propagated; a broken
// trail write must not roll back the business operation it describes.
func (s *service) Record(ctx context.Context, input RecordInput) {
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		actor = "system"
	}
	if !input.Module.IsValid() || strings.TrimSpace(input.Action) == "" {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"module": string(input.Module),
			"action": input.Action,
		}), "audit entry dropped: incomplete")
		return
	}

	entry := &models.AuditEntry{
		OccurredAt: s.now().UTC(),
		ActorLogin: actor,
		Module:     input.Module,
		Action:     input.Action,
	}
	if detail := strings.TrimSpace(input.Detail); detail != "" {
		entry.Detail = &detail
	}
	if ip := strings.TrimSpace(input.OriginIP); ip != "" {
		entry.OriginIP = &ip
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logg.Error(ctx, "audit entry write failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter := Filter{Page: params.Page}

	if m := strings.TrimSpace(params.Module); m != "" {
		module, err := enums.ParseAuditModule(m)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid module filter")
		}
		filter.Module = &module
	}
	if actor := strings.TrimSpace(params.Actor); actor != "" {
		filter.Actor = &actor
	}
	filter.From = params.From
	filter.To = params.To

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing audit entries")
	}
	return &ListResult{
		Entries: entries,
		Page:    pagination.PageFor(params.Page, total),
	}, nil
}
