package product

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
)

// ProductDTO is the transport shape for a catalog product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateProductRequest is the payload accepted by the product create endpoint.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

// UpdateProductRequest carries partial updates; nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Category    *string          `json:"category,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
}

// ListQuery is the normalized catalog query shape.
type ListQuery struct {
	Page      int
	Limit     int
	Category  string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	SortBy    enums.CatalogSortField
	SortOrder enums.SortOrder
}

// Normalize applies the catalog defaults: page >= 1, limit within bounds,
// trimmed filters, creation-time descending ordering.
func (q ListQuery) Normalize() ListQuery {
	params := pagination.Normalize(pagination.Params{Page: q.Page, Limit: q.Limit})
	q.Page = params.Page
	q.Limit = params.Limit
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	if !q.SortBy.IsValid() {
		q.SortBy = enums.CatalogSortCreatedAt
	}
	if !q.SortOrder.IsValid() {
		q.SortOrder = enums.SortOrderDesc
	}
	return q
}

// ListResult is the assembled catalog page, also the unit stored in the cache.
type ListResult struct {
	CurrentPage   int          `json:"currentPage"`
	PageSize      int          `json:"pageSize"`
	TotalPages    int          `json:"totalPages"`
	TotalProducts int64        `json:"totalProducts"`
	Products      []ProductDTO `json:"products"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
