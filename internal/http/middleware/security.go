package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/straye-as/sales-dashboard-api/internal/config"
)

// apiContentSecurityPolicy applies to JSON responses, which load nothing and
// are never framed. Swagger UI lives outside the API prefix and keeps its scripts.
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders returns a middleware that adds security headers to responses.
// Responses under cfg.APIPrefix are marked no-store.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	var hsts string
	if cfg.EnableHSTS {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}

			if cfg.APIPrefix != "" && strings.HasPrefix(r.URL.Path, cfg.APIPrefix) {
				h.Set("Cache-Control", "no-store")
				h.Set("Content-Security-Policy", apiContentSecurityPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
