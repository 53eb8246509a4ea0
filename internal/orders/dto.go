package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
)

// OrderLineRequest names one product/quantity pair in a placement request.
type OrderLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// PlaceOrderRequest is the payload accepted by the order placement endpoint.
// Prices are never part of the request; the engine computes them.
type PlaceOrderRequest struct {
	Description *string            `json:"description,omitempty"`
	Products    []OrderLineRequest `json:"products" validate:"required,min=1,dive"`
}

// UpdateStatusRequest carries the target status for an existing order.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemDTO is one materialized line with its product snapshot.
type OrderItemDTO struct {
	ProductID uuid.UUID           `json:"productId"`
	Quantity  int                 `json:"quantity"`
	Price     decimal.Decimal     `json:"price"`
	Product   *product.ProductDTO `json:"product,omitempty"`
}

// OrderDTO is the transport shape for a materialized order.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"userId"`
	Description *string           `json:"description,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	TotalPrice  decimal.Decimal   `json:"totalPrice"`
	CreatedAt   time.Time         `json:"createdAt"`
	Products    []OrderItemDTO    `json:"products"`
}

// OrderList wraps the paginated orders for one user.
type OrderList struct {
	Orders     []OrderDTO      `json:"orders"`
	Pagination pagination.Page `json:"pagination"`
}

func fromModel(order *models.Order, snapshots map[uuid.UUID]*product.ProductDTO) *OrderDTO {
	if order == nil {
		return nil
	}

	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		dto := OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if snapshots != nil {
			dto.Product = snapshots[item.ProductID]
		}
		items = append(items, dto)
	}

	return &OrderDTO{
		ID:          order.ID,
		UserID:      order.UserID,
		Description: order.Description,
		Status:      order.Status,
		TotalPrice:  order.TotalPrice,
		CreatedAt:   order.CreatedAt,
		Products:    items,
	}
}
