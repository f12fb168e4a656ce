package controllers

import (
	"net/http"
	"strings"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	usersvc "github.com/electrogest/electrogest-backend/internal/users"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

// ListUsers returns every account, newest first.
func ListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		views, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type createUserRequest struct {
	Login       string `json:"login" validate:"required,min=3"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password,omitempty" validate:"omitempty,min=6"`
	AccessTier  string `json:"access_tier" validate:"required"`
}

// CreateUser registers an account. Without a password a temporary one is
// generated and returned once.
func CreateUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload createUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseAccessTier(strings.TrimSpace(payload.AccessTier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid access tier"))
			return
		}

		result, err := svc.Create(r.Context(), middleware.LoginFromContext(r.Context()), usersvc.CreateInput{
			Login:       payload.Login,
			DisplayName: payload.DisplayName,
			Password:    payload.Password,
			AccessTier:  tier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	AccessTier  *string `json:"access_tier,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateUser edits display name, tier or active flag.
func UpdateUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := usersvc.UpdateInput{
			DisplayName: payload.DisplayName,
			IsActive:    payload.IsActive,
		}
		if payload.AccessTier != nil {
			tier, err := enums.ParseAccessTier(strings.TrimSpace(*payload.AccessTier))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid access tier"))
				return
			}
			input.AccessTier = &tier
		}

		view, err := svc.Update(r.Context(), middleware.LoginFromContext(r.Context()), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// DeactivateUser disables an account without removing it.
func DeactivateUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), middleware.LoginFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
