package main

import (
	"context"
	"net/http"
	"os"

	"github.com/dmarroquin/storefront-backend/api/routes"
	"github.com/dmarroquin/storefront-backend/internal/auth"
	"github.com/dmarroquin/storefront-backend/internal/orders"
	product "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/internal/users"
	"github.com/dmarroquin/storefront-backend/pkg/config"
	"github.com/dmarroquin/storefront-backend/pkg/db"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/migrate"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
	"github.com/joho/godotenv"
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

	// The catalog cache is optional. When no Redis endpoint is configured
	// the API serves every read from Postgres.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, catalog caching disabled")
	}

	storeMetrics := metrics.NewStorefrontMetrics()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		DB:             dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productRepo := product.NewRepository(dbClient.DB())
	catalogCache := product.NewCatalogCache(redisClient, cfg.Cache.CatalogTTL, storeMetrics, logg)

	productService, err := product.NewService(productRepo, catalogCache)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		Products: productRepo,
		TX:       dbClient,
		Cache:    catalogCache,
		Metrics:  storeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, storeMetrics, authService, productService, orderService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
