package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/electrogest/electrogest-backend/api/middleware"
	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	salesvc "github.com/electrogest/electrogest-backend/internal/sales"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type saleItemRequest struct {
	ProductID   uint             `json:"product_id" validate:"required"`
	Quantity    int              `json:"quantity" validate:"required,gt=0"`
	PromotionID *uint            `json:"promotion_id,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

type registerSaleRequest struct {
	CustomerID    *uint             `json:"customer_id,omitempty"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Items         []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RegisterSale records a sale, decrementing stock atomically.
func RegisterSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		operator := middleware.LoginFromContext(r.Context())
		if operator == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload registerSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]salesvc.ItemInput, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = salesvc.ItemInput{
				ProductID:   item.ProductID,
				Quantity:    item.Quantity,
				PromotionID: item.PromotionID,
				UnitPrice:   item.UnitPrice,
			}
		}

		sale, err := svc.Register(r.Context(), operator, salesvc.RegisterInput{
			CustomerID:    payload.CustomerID,
			PaymentMethod: method,
			Items:         items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

type reverseSaleRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReverseSale undoes a sale and restores the stock it consumed.
func ReverseSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reverseSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reverse(r.Context(), middleware.LoginFromContext(r.Context()), salesvc.ReverseInput{
			SaleID: id,
			Reason: payload.Reason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "reversed"})
	}
}

// GetSale returns one sale with its items.
func GetSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// ListSales pages through sales with optional period and filters.
func ListSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
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
		customerID, err := validators.ParseQueryUint(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), salesvc.ListParams{
			From:          from,
			To:            to,
			CustomerID:    customerID,
			OperatorLogin: strings.TrimSpace(r.URL.Query().Get("operator")),
			Page:          page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CustomerSaleHistory lists one customer's purchases.
func CustomerSaleHistory(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CustomerHistory(r.Context(), id, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SaleMetrics summarizes a period: totals, payment mix and top products.
func SaleMetrics(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
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
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to query parameters are required"))
			return
		}

		// "to" is inclusive at day granularity
		metrics, err := svc.MetricsForPeriod(r.Context(), *from, to.Add(24*time.Hour))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, metrics)
	}
}
