package product

import (
	"fmt"
	"testing"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func mustCreateTestUser(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Repo",
		LastName:     "Tester",
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, userID uuid.UUID, name string, price string, stock int, category string) *models.Product {
	t.Helper()
	product := &models.Product{
		UserID:   userID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: category,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return product
}
