package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/electrogest/electrogest-backend/api/controllers"
	"github.com/electrogest/electrogest-backend/api/routes"
	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/internal/auth"
	"github.com/electrogest/electrogest-backend/internal/categories"
	"github.com/electrogest/electrogest-backend/internal/customers"
	"github.com/electrogest/electrogest-backend/internal/products"
	"github.com/electrogest/electrogest-backend/internal/promotions"
	"github.com/electrogest/electrogest-backend/internal/reports"
	"github.com/electrogest/electrogest-backend/internal/sales"
	"github.com/electrogest/electrogest-backend/internal/stock"
	"github.com/electrogest/electrogest-backend/internal/users"
	"github.com/electrogest/electrogest-backend/pkg/cache"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/logger"
	"github.com/electrogest/electrogest-backend/pkg/metrics"
	"github.com/electrogest/electrogest-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var store cache.Cache
	readyChecks := map[string]controllers.Pinger{"database": dbClient}
	if cfg.Cache.IsRedis() {
		redisStore, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis cache", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis cache", err)
			}
		}()
		store = redisStore
		readyChecks["cache"] = redisStore
	} else {
		store = cache.NewMemory()
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	trail, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		fatal(logg, "failed to create audit service", err)
	}

	userService, err := users.NewService(users.NewRepository(dbClient.DB()), trail, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create user service", err)
	}
	if err := userService.EnsureDefaultAdmin(context.Background()); err != nil {
		fatal(logg, "failed to seed the default admin", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		Trail:          trail,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create customer service", err)
	}
	categoryService, err := categories.NewService(categories.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create category service", err)
	}
	productService, err := products.NewService(products.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create product service", err)
	}
	stockService, err := stock.NewService(dbClient, stock.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create stock service", err)
	}
	saleService, err := sales.NewService(dbClient, sales.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create sale service", err)
	}
	promotionService, err := promotions.NewService(promotions.NewRepository(dbClient.DB()), trail)
	if err != nil {
		fatal(logg, "failed to create promotion service", err)
	}
	reportService, err := reports.NewService(reports.ServiceParams{
		Repo:   reports.NewRepository(dbClient.DB()),
		Cache:  store,
		Config: cfg.Cache,
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create report service", err)
	}

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		HTTPMetrics: httpMetrics,
		Registry:    registry,
		ReadyChecks: readyChecks,
		Auth:        authService,
		Users:       userService,
		Customers:   customerService,
		Categories:  categoryService,
		Products:    productService,
		Stock:       stockService,
		Sales:       saleService,
		Promotions:  promotionService,
		Reports:     reportService,
		Audit:       trail,
	})

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	runCtx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "api server shut down gracefully")
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
