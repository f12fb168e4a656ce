package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/internal/users"
	pkgauth "github.com/electrogest/electrogest-backend/pkg/auth"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, login string, req ChangePasswordRequest) error
}

type userRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

type service struct {
	users       userRepository
	trail       audit.Recorder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Trail          audit.Recorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Trail == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	return &service{
		users:       params.UserRepo,
		trail:       params.Trail,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Login, req.Password)
	if err != nil {
		s.trail.Record(ctx, audit.RecordInput{
			Actor:    strings.ToLower(strings.TrimSpace(req.Login)),
			Module:   enums.AuditModuleAuth,
			Action:   "login_failed",
			OriginIP: req.OriginIP,
		})
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		Login:       user.Login,
		DisplayName: user.DisplayName,
		AccessTier:  user.AccessTier,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:    user.Login,
		Module:   enums.AuditModuleAuth,
		Action:   "login",
		OriginIP: req.OriginIP,
	})

	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtCfg.Expiration().Seconds()),
		User:        users.ToView(user),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, login string, req ChangePasswordRequest) error {
	user, err := s.authenticate(ctx, login, req.CurrentPassword)
	if err != nil {
		return err
	}
	if req.NewPassword == req.CurrentPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current one")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:    user.Login,
		Module:   enums.AuditModuleAuth,
		Action:   "password_changed",
		OriginIP: req.OriginIP,
	})
	return nil
}

// authenticate resolves the account and checks the password. Every failure
// path collapses to the same unauthorized message so login probing cannot
// distinguish unknown accounts from wrong passwords.
func (s *service) authenticate(ctx context.Context, login, password string) (*models.User, error) {
	input := strings.ToLower(strings.TrimSpace(login))
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByLogin(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
