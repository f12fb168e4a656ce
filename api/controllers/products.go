package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	productsvc "github.com/electrogest/electrogest-backend/internal/products"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type createProductRequest struct {
	Name             string          `json:"name" validate:"required"`
	Description      string          `json:"description,omitempty"`
	Barcode          string          `json:"barcode,omitempty"`
	CategoryID       *uint           `json:"category_id,omitempty"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	Quantity         int             `json:"quantity" validate:"min=0"`
	ReorderThreshold int             `json:"reorder_threshold" validate:"min=0"`
}

// CreateProduct registers a catalog item with its opening stock.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), middleware.LoginFromContext(r.Context()), productsvc.CreateInput{
			Name:             payload.Name,
			Description:      payload.Description,
			Barcode:          payload.Barcode,
			CategoryID:       payload.CategoryID,
			CostPrice:        payload.CostPrice,
			SalePrice:        payload.SalePrice,
			Quantity:         payload.Quantity,
			ReorderThreshold: payload.ReorderThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// GetProduct returns one product by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// GetProductByBarcode resolves a product from a scanned barcode.
func GetProductByBarcode(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		barcode := strings.TrimSpace(r.URL.Query().Get("barcode"))
		if barcode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "barcode query parameter is required"))
			return
		}

		product, err := svc.GetByBarcode(r.Context(), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ListProducts pages through the catalog with optional filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUint(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		onlyActive, err := validators.ParseQueryBool(r, "only_active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := productsvc.ListFilter{
			Query:      strings.TrimSpace(r.URL.Query().Get("q")),
			CategoryID: categoryID,
			Page:       page,
		}
		if onlyActive != nil {
			filter.OnlyActive = *onlyActive
		}
		if lowStock != nil {
			filter.LowStock = *lowStock
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type updateProductRequest struct {
	Name             *string          `json:"name,omitempty"`
	Description      *string          `json:"description,omitempty"`
	Barcode          *string          `json:"barcode,omitempty"`
	CategoryID       *uint            `json:"category_id,omitempty"`
	ClearCategory    bool             `json:"clear_category,omitempty"`
	CostPrice        *decimal.Decimal `json:"cost_price,omitempty"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	ReorderThreshold *int             `json:"reorder_threshold,omitempty"`
	Active           *bool            `json:"active,omitempty"`
}

// UpdateProduct edits catalog fields. On-hand quantity is deliberately
// excluded; it changes through stock movements only.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), middleware.LoginFromContext(r.Context()), id, productsvc.UpdateInput{
			Name:             payload.Name,
			Description:      payload.Description,
			Barcode:          payload.Barcode,
			CategoryID:       payload.CategoryID,
			ClearCategory:    payload.ClearCategory,
			CostPrice:        payload.CostPrice,
			SalePrice:        payload.SalePrice,
			ReorderThreshold: payload.ReorderThreshold,
			Active:           payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct deactivates a product, keeping the row for sale history.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
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
