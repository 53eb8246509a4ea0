package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarroquin/storefront-backend/api/middleware"
	"github.com/dmarroquin/storefront-backend/api/responses"
	"github.com/dmarroquin/storefront-backend/api/validators"
	ordersvc "github.com/dmarroquin/storefront-backend/internal/orders"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/pagination"
)

// PlaceOrder handles the order placement request.
func PlaceOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload ordersvc.PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "order placed", order)
	}
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID, pagination.Params{Page: page, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "orders retrieved", list)
	}
}

// GetOrder returns one of the caller's orders.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		orderID, err := parsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order retrieved", order)
	}
}

// UpdateOrderStatus moves an order to a new lifecycle status.
func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		orderID, err := parsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersvc.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), userID, orderID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order status updated", order)
	}
}
