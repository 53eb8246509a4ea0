package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarroquin/storefront-backend/pkg/enums"
)

// Order is created only by the order placement transaction. TotalPrice is
// derived from the line snapshots and never changes after commit.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Description *string           `gorm:"column:description"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalPrice  decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}
