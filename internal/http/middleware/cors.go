package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"go.uber.org/zap"
)

var (
	// corsMethods covers the routes the router exposes: reads, quota writes and refresh
	corsMethods = []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPost}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", "X-API-Key", RequestIDHeader}
)

// CORS returns a CORS middleware for the dashboard frontends. Callers
// authenticate with headers, never cookies, so credentials are not allowed.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  originPolicy(cfg.AllowedOrigins, environment, logger),
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}

// originPolicy allows the configured origins. With none configured, any
// origin is allowed in development and none elsewhere.
func originPolicy(origins []string, environment string, logger *zap.Logger) func(*http.Request, string) bool {
	development := environment == "development" || environment == "local" || environment == ""

	switch {
	case slices.Contains(origins, "*"):
		if !development {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		return func(_ *http.Request, origin string) bool { return origin != "" }
	case len(origins) > 0:
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", origins))
		allowed := slices.Clone(origins)
		return func(_ *http.Request, origin string) bool { return slices.Contains(allowed, origin) }
	case development:
		logger.Info("CORS configured to allow all origins in development mode")
		return func(_ *http.Request, origin string) bool { return origin != "" }
	default:
		logger.Warn("CORS configured with no allowed origins, cross-origin requests will be denied",
			zap.String("environment", environment))
		return func(*http.Request, string) bool { return false }
	}
}
