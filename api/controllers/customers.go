package controllers

import (
	"net/http"
	"strings"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	customersvc "github.com/electrogest/electrogest-backend/internal/customers"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type createCustomerRequest struct {
	Name    string `json:"name" validate:"required"`
	TaxID   string `json:"tax_id" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// CreateCustomer registers a customer keyed by tax id.
func CreateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), middleware.LoginFromContext(r.Context()), customersvc.CreateInput{
			Name:    payload.Name,
			TaxID:   payload.TaxID,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Address: payload.Address,
			Notes:   payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// GetCustomer returns one customer by id.
func GetCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// SearchCustomers lists customers matching an optional free-text query.
func SearchCustomers(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		onlyActive, err := validators.ParseQueryBool(r, "only_active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := customersvc.SearchParams{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
			Page:  page,
		}
		if onlyActive != nil {
			params.OnlyActive = *onlyActive
		}

		result, err := svc.Search(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetCustomerByTaxID resolves a customer from a CPF.
func GetCustomerByTaxID(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		taxID := strings.TrimSpace(r.URL.Query().Get("tax_id"))
		if taxID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tax_id query parameter is required"))
			return
		}

		view, err := svc.GetByTaxID(r.Context(), taxID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type updateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// UpdateCustomer edits the supplied fields, leaving the rest untouched.
func UpdateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), middleware.LoginFromContext(r.Context()), id, customersvc.UpdateInput{
			Name:    payload.Name,
			TaxID:   payload.TaxID,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Address: payload.Address,
			Notes:   payload.Notes,
			Active:  payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// DeleteCustomer deactivates a customer. Customers with linked sales cannot
// be deleted.
func DeleteCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
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

// CustomerStats summarizes the customer base.
func CustomerStats(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// ImportCustomers ingests a CSV upload. The duplicate_policy query parameter
// decides how existing tax ids are handled.
func ImportCustomers(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		policy := customersvc.DuplicatePolicy(strings.TrimSpace(r.URL.Query().Get("duplicate_policy")))
		if policy == "" {
			policy = customersvc.DuplicateCreateNew
		}

		summary, err := svc.Import(r.Context(), middleware.LoginFromContext(r.Context()), customersvc.ImportInput{
			Reader: r.Body,
			Policy: policy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
