package controllers

import (
	"net/http"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	authsvc "github.com/electrogest/electrogest-backend/internal/auth"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

// Login exchanges credentials for an access token.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.OriginIP = r.RemoteAddr

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ChangePassword rotates the caller's own password.
func ChangePassword(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		login := middleware.LoginFromContext(r.Context())
		if login == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload authsvc.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.OriginIP = r.RemoteAddr

		if err := svc.ChangePassword(r.Context(), login, payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "password changed"})
	}
}
