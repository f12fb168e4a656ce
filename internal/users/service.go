package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/security"
)

const tempPasswordLength = 12

// CreateInput holds the fields for a new operator account.
type CreateInput struct {
	Login       string
	DisplayName string
	Password    string
	AccessTier  enums.AccessTier
}

// CreateResult returns the created account plus the generated password when
// the caller did not supply one.
type CreateResult struct {
	User         View    `json:"user"`
	TempPassword *string `json:"temp_password,omitempty"`
}

// UpdateInput carries the optional fields of a partial update.
type UpdateInput struct {
	DisplayName *string
	AccessTier  *enums.AccessTier
	IsActive    *bool
}

// Service exposes operator account administration.
type Service interface {
	List(ctx context.Context) ([]View, error)
	Create(ctx context.Context, actor string, input CreateInput) (*CreateResult, error)
	Update(ctx context.Context, actor string, id uint, input UpdateInput) (*View, error)
	Deactivate(ctx context.Context, actor string, id uint) error
	EnsureDefaultAdmin(ctx context.Context) error
}

type service struct {
	repo        Repository
	trail       audit.Recorder
	passwordCfg config.PasswordConfig
}

// NewService builds the user administration service.
func NewService(repo Repository, trail audit.Recorder, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, trail: trail, passwordCfg: passwordCfg}, nil
}

func (s *service) List(ctx context.Context) ([]View, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing users")
	}
	return ToViews(rows), nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInput) (*CreateResult, error) {
	login := strings.ToLower(strings.TrimSpace(input.Login))
	if login == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login is required")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}
	if !input.AccessTier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid access tier")
	}

	password := input.Password
	var tempPassword *string
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating temp password")
		}
		password = generated
		tempPassword = &generated
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Login:        login,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		AccessTier:   input.AccessTier,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "login") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "login already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleUsers,
		Action: "created",
		Detail: fmt.Sprintf("user %s tier %s", user.Login, user.AccessTier),
	})

	view := ToView(user)
	return &CreateResult{User: view, TempPassword: tempPassword}, nil
}

func (s *service) Update(ctx context.Context, actor string, id uint, input UpdateInput) (*View, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}

	demotingAdmin := false
	if input.AccessTier != nil {
		if !input.AccessTier.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid access tier")
		}
		if user.AccessTier == enums.AccessTierAdmin && *input.AccessTier != enums.AccessTierAdmin {
			demotingAdmin = true
		}
	}
	deactivating := input.IsActive != nil && !*input.IsActive && user.IsActive

	if user.AccessTier == enums.AccessTierAdmin && user.IsActive && (demotingAdmin || deactivating) {
		remaining, err := s.repo.CountActiveAdmins(ctx, user.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting admins")
		}
		if remaining == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot remove the last active admin")
		}
	}

	var changes []string
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name cannot be empty")
		}
		user.DisplayName = name
		changes = append(changes, "display_name")
	}
	if input.AccessTier != nil {
		user.AccessTier = *input.AccessTier
		changes = append(changes, "access_tier")
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
		changes = append(changes, "is_active")
	}
	if len(changes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating user")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleUsers,
		Action: "updated",
		Detail: fmt.Sprintf("user %s fields %s", user.Login, strings.Join(changes, ",")),
	})

	view := ToView(user)
	return &view, nil
}

func (s *service) Deactivate(ctx context.Context, actor string, id uint) error {
	inactive := false
	_, err := s.Update(ctx, actor, id, UpdateInput{IsActive: &inactive})
	return err
}

// EnsureDefaultAdmin seeds the initial admin account on an empty users
// table so a fresh install can be logged into.
func (s *service) EnsureDefaultAdmin(ctx context.Context) error {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting users")
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword("admin", s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing default password")
	}
	user := &models.User{
		Login:        "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		AccessTier:   enums.AccessTierAdmin,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seeding default admin")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  "system",
		Module: enums.AuditModuleUsers,
		Action: "seeded",
		Detail: "default admin account created",
	})
	return nil
}
