package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable catalog listing. Stock is the count of
// sellable units and is only ever decremented by committed orders.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null;index"`
	Description string          `gorm:"column:description;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Category    string          `gorm:"column:category;not null;index"`
	ImageURL    *string         `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
