package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmarroquin/storefront-backend/api/middleware"
	"github.com/dmarroquin/storefront-backend/api/responses"
	"github.com/dmarroquin/storefront-backend/api/validators"
	productsvc "github.com/dmarroquin/storefront-backend/internal/products"
	"github.com/dmarroquin/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
)

// ListProducts serves the public catalog query.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		query, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "products retrieved", result)
	}
}

// GetProduct serves one product by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "product retrieved", product)
	}
}

// CreateProduct handles authenticated product creation.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload productsvc.CreateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "product created", product)
	}
}

// UpdateProduct applies a partial update to an owned product.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productsvc.UpdateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), userID, id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "product updated", product)
	}
}

// DeleteProduct removes an owned product.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "product deleted", nil)
	}
}

func parseCatalogQuery(r *http.Request) (productsvc.ListQuery, error) {
	var query productsvc.ListQuery

	page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1<<30)
	if err != nil {
		return query, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return query, err
	}

	minPrice, err := validators.ParseQueryDecimal(r, "minPrice")
	if err != nil {
		return query, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "maxPrice")
	if err != nil {
		return query, err
	}

	query = productsvc.ListQuery{
		Page:     page,
		Limit:    limit,
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("sortBy")); raw != "" {
		field, err := enums.ParseCatalogSortField(raw)
		if err != nil {
			return query, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).WithDetails(map[string]any{"field": "sortBy"})
		}
		query.SortBy = field
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("sortOrder")); raw != "" {
		order, err := enums.ParseSortOrder(raw)
		if err != nil {
			return query, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).WithDetails(map[string]any{"field": "sortOrder"})
		}
		query.SortOrder = order
	}

	return query, nil
}

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
