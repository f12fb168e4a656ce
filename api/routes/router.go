package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/electrogest/electrogest-backend/api/controllers"
	"github.com/electrogest/electrogest-backend/api/middleware"
	auditsvc "github.com/electrogest/electrogest-backend/internal/audit"
	authsvc "github.com/electrogest/electrogest-backend/internal/auth"
	categorysvc "github.com/electrogest/electrogest-backend/internal/categories"
	customersvc "github.com/electrogest/electrogest-backend/internal/customers"
	productsvc "github.com/electrogest/electrogest-backend/internal/products"
	promotionsvc "github.com/electrogest/electrogest-backend/internal/promotions"
	reportsvc "github.com/electrogest/electrogest-backend/internal/reports"
	salesvc "github.com/electrogest/electrogest-backend/internal/sales"
	stocksvc "github.com/electrogest/electrogest-backend/internal/stock"
	usersvc "github.com/electrogest/electrogest-backend/internal/users"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/logger"
	"github.com/electrogest/electrogest-backend/pkg/metrics"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	HTTPMetrics *metrics.HTTPMetrics
	Registry    prometheus.Gatherer

	ReadyChecks map[string]controllers.Pinger

	Auth       authsvc.Service
	Users      usersvc.Service
	Customers  customersvc.Service
	Categories categorysvc.Service
	Products   productsvc.Service
	Stock      stocksvc.Service
	Sales      salesvc.Service
	Promotions promotionsvc.Service
	Reports    reportsvc.Service
	Audit      auditsvc.Service
}

// NewRouter wires the full HTTP surface. Reads need viewer tier, mutations
// need operator, user and trail administration need admin.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Liveness())
		r.Get("/ready", controllers.Readiness(logg, deps.ReadyChecks))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.Login(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/auth/change-password", controllers.ChangePassword(deps.Auth, logg))

			// viewer: read-only surface
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTier(enums.AccessTierViewer, logg))

				r.Get("/customers", controllers.SearchCustomers(deps.Customers, logg))
				r.Get("/customers/lookup", controllers.GetCustomerByTaxID(deps.Customers, logg))
				r.Get("/customers/stats", controllers.CustomerStats(deps.Customers, logg))
				r.Get("/customers/{id}", controllers.GetCustomer(deps.Customers, logg))
				r.Get("/customers/{id}/sales", controllers.CustomerSaleHistory(deps.Sales, logg))

				r.Get("/categories", controllers.ListCategories(deps.Categories, logg))
				r.Get("/categories/{id}", controllers.GetCategory(deps.Categories, logg))

				r.Get("/products", controllers.ListProducts(deps.Products, logg))
				r.Get("/products/lookup", controllers.GetProductByBarcode(deps.Products, logg))
				r.Get("/products/{id}", controllers.GetProduct(deps.Products, logg))

				r.Get("/stock/movements", controllers.StockHistory(deps.Stock, logg))
				r.Get("/stock/report", controllers.StockReport(deps.Stock, logg))
				r.Get("/stock/suggestions", controllers.ReplenishmentSuggestions(deps.Stock, logg))

				r.Get("/sales", controllers.ListSales(deps.Sales, logg))
				r.Get("/sales/metrics", controllers.SaleMetrics(deps.Sales, logg))
				r.Get("/sales/{id}", controllers.GetSale(deps.Sales, logg))

				r.Get("/promotions", controllers.ListPromotions(deps.Promotions, logg))
				r.Get("/promotions/{id}", controllers.GetPromotion(deps.Promotions, logg))
				r.Post("/promotions/quote", controllers.QuoteDiscounts(deps.Promotions, logg))

				r.Get("/reports/dashboard", controllers.DashboardReport(deps.Reports, logg))
				r.Get("/reports/sales-by-period", controllers.SalesByPeriodReport(deps.Reports, logg))
				r.Get("/reports/top-customers", controllers.TopCustomersReport(deps.Reports, logg))
				r.Get("/reports/productivity", controllers.ProductivityReport(deps.Reports, logg))
				r.Get("/reports/rfm", controllers.RFMReport(deps.Reports, logg))
			})

			// operator: day-to-day mutations
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTier(enums.AccessTierOperator, logg))

				r.Post("/customers", controllers.CreateCustomer(deps.Customers, logg))
				r.Post("/customers/import", controllers.ImportCustomers(deps.Customers, logg))
				r.Patch("/customers/{id}", controllers.UpdateCustomer(deps.Customers, logg))
				r.Delete("/customers/{id}", controllers.DeleteCustomer(deps.Customers, logg))

				r.Post("/categories", controllers.CreateCategory(deps.Categories, logg))
				r.Patch("/categories/{id}", controllers.UpdateCategory(deps.Categories, logg))
				r.Delete("/categories/{id}", controllers.DeleteCategory(deps.Categories, logg))

				r.Post("/products", controllers.CreateProduct(deps.Products, logg))
				r.Patch("/products/{id}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/products/{id}", controllers.DeleteProduct(deps.Products, logg))

				r.Post("/stock/entries", controllers.RegisterStockEntry(deps.Stock, logg))
				r.Post("/stock/exits", controllers.RegisterStockExit(deps.Stock, logg))
				r.Post("/stock/adjustments", controllers.AdjustStock(deps.Stock, logg))

				r.Post("/sales", controllers.RegisterSale(deps.Sales, logg))
				r.Post("/sales/{id}/reverse", controllers.ReverseSale(deps.Sales, logg))

				r.Post("/promotions", controllers.CreatePromotion(deps.Promotions, logg))
				r.Patch("/promotions/{id}", controllers.UpdatePromotion(deps.Promotions, logg))
				r.Delete("/promotions/{id}", controllers.DeletePromotion(deps.Promotions, logg))
			})

			// admin: accounts and the audit trail
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTier(enums.AccessTierAdmin, logg))

				r.Get("/users", controllers.ListUsers(deps.Users, logg))
				r.Post("/users", controllers.CreateUser(deps.Users, logg))
				r.Patch("/users/{id}", controllers.UpdateUser(deps.Users, logg))
				r.Delete("/users/{id}", controllers.DeactivateUser(deps.Users, logg))

				r.Get("/audit", controllers.ListAuditEntries(deps.Audit, logg))
			})
		})
	})

	return r
}
