package controllers

import (
	"net/http"

	"github.com/dmarroquin/storefront-backend/api/responses"
	"github.com/dmarroquin/storefront-backend/pkg/config"
	"github.com/dmarroquin/storefront-backend/pkg/db"
	pkgerrors "github.com/dmarroquin/storefront-backend/pkg/errors"
	"github.com/dmarroquin/storefront-backend/pkg/logger"
	"github.com/dmarroquin/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, "live", map[string]string{"status": "live"})
	}
}

// HealthReady pings the store; the cache is reported but never fails
// readiness, because the API serves without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}

		cacheStatus := "disabled"
		if redisClient != nil {
			cacheStatus = "ok"
			if err := redisClient.Ping(r.Context()); err != nil {
				cacheStatus = "unreachable"
				if logg != nil {
					logg.Warn(r.Context(), "cache ping failed: "+err.Error())
				}
			}
		}

		responses.WriteSuccess(w, "ready", map[string]string{
			"status": "ready",
			"cache":  cacheStatus,
		})
	}
}
