package controllers

import (
	"net/http"
	"strings"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	stocksvc "github.com/electrogest/electrogest-backend/internal/stock"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type stockEntryRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Source    string `json:"source,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RegisterStockEntry adds units to a product.
func RegisterStockEntry(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload stockEntryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stocksvc.EntryInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Reason:    payload.Reason,
		}
		if raw := strings.TrimSpace(payload.Source); raw != "" {
			source, err := enums.ParseStockMovementSource(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source"))
				return
			}
			input.Source = source
		}

		movement, err := svc.RegisterEntry(r.Context(), middleware.LoginFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type stockExitRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason,omitempty"`
}

// RegisterStockExit removes units outside of a sale.
func RegisterStockExit(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload stockExitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.RegisterExit(r.Context(), middleware.LoginFromContext(r.Context()), stocksvc.ExitInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

type stockAdjustRequest struct {
	ProductID      uint   `json:"product_id" validate:"required"`
	TargetQuantity int    `json:"target_quantity" validate:"min=0"`
	Reason         string `json:"reason" validate:"required"`
}

// AdjustStock sets a product's on-hand count to an absolute value.
func AdjustStock(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Adjust(r.Context(), middleware.LoginFromContext(r.Context()), stocksvc.AdjustInput{
			ProductID:      payload.ProductID,
			TargetQuantity: payload.TargetQuantity,
			Reason:         payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// StockHistory pages through the movement ledger.
func StockHistory(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUint(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.History(r.Context(), stocksvc.HistoryParams{
			ProductID: productID,
			Source:    strings.TrimSpace(r.URL.Query().Get("source")),
			From:      from,
			To:        to,
			Page:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// StockReport breaks inventory value down by category.
func StockReport(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		report, err := svc.Report(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// ReplenishmentSuggestions lists products at or below their reorder threshold
// with a recommended purchase quantity.
func ReplenishmentSuggestions(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		suggestions, err := svc.Suggestions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, suggestions)
	}
}
