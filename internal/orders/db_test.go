package orders

import (
	"fmt"
	"testing"
	"time"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/metrics"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alicebob/miniredis/v2"
	product "github.com/dmarroquin/storefront-backend/internal/products"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func newTestCache(t *testing.T) (*product.CatalogCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewFromAddr(srv.Addr())
	cache := product.NewCatalogCache(client, time.Hour, metrics.NewStorefrontMetrics(), logger.New(logger.Options{ServiceName: "test"}))
	return cache, srv
}

func newOfflineCache() *product.CatalogCache {
	return product.NewCatalogCache(nil, time.Hour, metrics.NewStorefrontMetrics(), logger.New(logger.Options{ServiceName: "test"}))
}

func mustCreateTestUser(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Order",
		LastName:     "Tester",
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, userID uuid.UUID, name string, price string, stock int) *models.Product {
	t.Helper()
	prod := &models.Product{
		UserID:   userID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "test",
	}
	if err := tx.Create(prod).Error; err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return prod
}

func mustCountRows(t *testing.T, tx *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func mustLoadStock(t *testing.T, tx *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var prod models.Product
	if err := tx.First(&prod, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return prod.Stock
}
