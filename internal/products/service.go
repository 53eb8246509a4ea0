package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmarroquin/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines the catalog operations used by the controllers.
type Service interface {
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo  *Repository
	cache *CatalogCache
}

// NewService builds the catalog service. The cache may wrap a nil client; the
// service then serves every query straight from the store.
func NewService(repo *Repository, cache *CatalogCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("catalog cache required")
	}
	return &service{repo: repo, cache: cache}, nil
}

// List serves a catalog page read-through: cache first, store on miss, then a
// best-effort cache fill.
func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	query = query.Normalize()
	key := s.cache.Key(query)

	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := pagination.NewPage(pagination.Params{Page: query.Page, Limit: query.Limit}, total)
	result := &ListResult{
		CurrentPage:   page.Page,
		PageSize:      page.Limit,
		TotalPages:    page.TotalPages,
		TotalProducts: total,
		Products:      fromModels(rows),
	}

	s.cache.Store(ctx, key, result)
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(row), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if req.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	row, err := s.repo.Create(ctx, &models.Product{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.cache.Invalidate(ctx)
	return FromModel(row), nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	row, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		row.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		row.Stock = *req.Stock
	}
	if req.Category != nil {
		row.Category = *req.Category
	}
	if req.ImageURL != nil {
		row.ImageURL = req.ImageURL
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	s.cache.Invalidate(ctx)
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *service) loadOwned(ctx context.Context, userID, id uuid.UUID) (*models.Product, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to user")
	}
	return row, nil
}
