// Package api assembles the HTTP surface of the restaurant service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"restaurant-system/internal/config"
	"restaurant-system/internal/httputil"
	"restaurant-system/internal/identity"
	"restaurant-system/internal/logger"
	"restaurant-system/internal/metrics"
)

const maxLimiterKeys = 10000

// Routes is implemented by every service handler
type Routes interface {
	RegisterRoutes(r *mux.Router)
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// NewRouter builds the full handler chain. CORS and request logging wrap the
// router so preflights and unknown paths pass through them too. Idle rate
// limiter buckets are swept until ctx is done.
func NewRouter(ctx context.Context, cfg config.ServerConfig, log *logger.Logger, checks map[string]HealthCheck, routes ...Routes) http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler(checks)).Methods(http.MethodGet)

	limiter := NewRateLimiter(float64(cfg.RateLimit), cfg.RateBurst, log)
	go limiter.sweep(ctx, time.Minute, maxLimiterKeys)

	r.Use(metrics.InstrumentHandler)
	r.Use(identity.Middleware)
	r.Use(limiter.Handler)

	for _, route := range routes {
		route.RegisterRoutes(r)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{
			Error:     "Endpoint not found",
			Code:      "not_found",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: logger.RequestIDFromContext(req.Context()),
		})
	})

	return withLogging(log)(NewCORS(cfg.AllowedOrigins).Handler(r))
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		healthy := true
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				healthy = false
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    results,
		}

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
		}
		httputil.WriteJSON(w, statusCode, response)
	}
}
