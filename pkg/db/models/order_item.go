package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem captures the snapshot of one product line inside an order.
// Price is the line total computed at order time (unit price x quantity)
// and does not track later product price changes.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int             `gorm:"column:quantity;not null;check:quantity > 0"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
