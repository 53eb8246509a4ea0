package controllers

import (
	"net/http"

	"github.com/dmarroquin/storefront-backend/api/responses"
	"github.com/dmarroquin/storefront-backend/api/validators"
	authsvc "github.com/dmarroquin/storefront-backend/internal/auth"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
)

// AuthRegister handles account creation.
func AuthRegister(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, "account created", user)
	}
}

// AuthLogin handles credential verification and token minting.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "login successful", resp)
	}
}
