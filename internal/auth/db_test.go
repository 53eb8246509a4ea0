package auth

import (
	"testing"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}
