package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	promotionsvc "github.com/electrogest/electrogest-backend/internal/promotions"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type createPromotionRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type" validate:"required"`
	Value       decimal.Decimal `json:"value"`
	StartsOn    string          `json:"starts_on" validate:"required"`
	EndsOn      string          `json:"ends_on" validate:"required"`
}

// CreatePromotion registers a promotion in planned status.
func CreatePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParsePromotionType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type"))
			return
		}
		startsOn, err := parseDateField(payload.StartsOn, "starts_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		endsOn, err := parseDateField(payload.EndsOn, "ends_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promotion, err := svc.Create(r.Context(), middleware.LoginFromContext(r.Context()), promotionsvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Type:        kind,
			Value:       payload.Value,
			StartsOn:    startsOn,
			EndsOn:      endsOn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, promotion)
	}
}

// GetPromotion returns one promotion by id.
func GetPromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promotion, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promotion)
	}
}

// ListPromotions filters promotions by status or current activity.
func ListPromotions(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promotions, err := svc.List(
			r.Context(),
			strings.TrimSpace(r.URL.Query().Get("status")),
			activeOnly != nil && *activeOnly,
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promotions)
	}
}

type updatePromotionRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	StartsOn    *string          `json:"starts_on,omitempty"`
	EndsOn      *string          `json:"ends_on,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

// UpdatePromotion edits the supplied fields, including manual status moves.
func UpdatePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := promotionsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Value:       payload.Value,
		}
		if payload.StartsOn != nil {
			startsOn, err := parseDateField(*payload.StartsOn, "starts_on")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.StartsOn = &startsOn
		}
		if payload.EndsOn != nil {
			endsOn, err := parseDateField(*payload.EndsOn, "ends_on")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.EndsOn = &endsOn
		}
		if payload.Status != nil {
			status, err := enums.ParsePromotionStatus(strings.TrimSpace(*payload.Status))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		promotion, err := svc.Update(r.Context(), middleware.LoginFromContext(r.Context()), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promotion)
	}
}

// DeletePromotion removes a promotion no sale references.
func DeletePromotion(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.LoginFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type quoteRequest struct {
	Items []promotionsvc.QuoteItem `json:"items" validate:"required,min=1"`
}

// QuoteDiscounts prices a basket against active promotions without selling.
func QuoteDiscounts(svc promotionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.QuoteBestDiscount(r.Context(), payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

func parseDateField(raw, field string) (time.Time, error) {
	value, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a YYYY-MM-DD date")
	}
	return value, nil
}
