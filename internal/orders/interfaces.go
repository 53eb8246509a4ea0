package orders

import (
	"context"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}
