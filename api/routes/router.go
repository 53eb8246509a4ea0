package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarroquin/storefront-backend/api/controllers"
	"github.com/dmarroquin/storefront-backend/api/middleware"
	authsvc "github.com/dmarroquin/storefront-backend/internal/auth"
	ordersvc "github.com/dmarroquin/storefront-backend/internal/orders"
	productsvc "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/pkg/config"
	"github.com/dmarroquin/storefront-backend/pkg/db"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storeMetrics *metrics.StorefrontMetrics,
	authService authsvc.Service,
	productService productsvc.Service,
	orderService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if storeMetrics != nil {
		r.Method(http.MethodGet, "/metrics", storeMetrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(productService, logg))
		r.Get("/{productId}", controllers.GetProduct(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/", controllers.PlaceOrder(orderService, logg))
		r.Get("/", controllers.ListOrders(orderService, logg))
		r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
		r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(orderService, logg))
	})

	return r
}
