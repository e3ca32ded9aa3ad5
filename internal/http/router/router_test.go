package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/auth"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/http/handler"
	"github.com/straye-as/sales-dashboard-api/internal/http/middleware"
	"github.com/straye-as/sales-dashboard-api/internal/http/router"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/straye-as/sales-dashboard-api/internal/repository"
	"github.com/straye-as/sales-dashboard-api/internal/service"
	"github.com/straye-as/sales-dashboard-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	apiKey    = "router-test-key"
	jwtSecret = "router-test-secret-value"
)

type emptySource struct{}

func (emptySource) Name() string { return "empty" }

func (emptySource) Load(context.Context) ([]domain.DealRecord, error) { return nil, nil }

func newHandler(t *testing.T, authRequired bool) http.Handler {
	t.Helper()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "test", Environment: "test"},
		Auth:      config.AuthConfig{Required: authRequired, APIKey: apiKey, JWTSecret: jwtSecret, JWTIssuer: "sales-dashboard"},
		Server:    config.ServerConfig{EnableSwagger: true},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Security:  config.SecurityConfig{APIPrefix: "/api/"},
	}
	logger := zap.NewNop()
	m := metrics.New()
	db := testutil.SetupTestDB(t)

	quotaSvc := service.NewQuotaService(repository.NewQuotaRepository(db), logger)
	dashboardSvc := service.NewDashboardService(emptySource{}, quotaSvc, fiscal.DefaultCalendar(),
		service.FixedClock(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)), m, logger)

	rt := router.NewRouter(
		cfg,
		logger,
		m,
		auth.NewMiddleware(&cfg.Auth, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewHealthHandler(db, nil, nil, logger),
		handler.NewDashboardHandler(dashboardSvc, logger),
		handler.NewQuotaHandler(quotaSvc, dashboardSvc, logger),
		handler.NewRefreshHandler(nil, logger),
	)
	return rt.Setup()
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := auth.NewJWTValidator(jwtSecret, "sales-dashboard").IssueToken("user-1", "Test User", roles, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_Routes(t *testing.T) {
	h := newHandler(t, true)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header map[string]string
		want   int
	}{
		{"liveness is public", http.MethodGet, "/health", "", nil, http.StatusOK},
		{"readiness is public", http.MethodGet, "/health/ready", "", nil, http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", nil, http.StatusOK},
		{"swagger is served", http.MethodGet, "/swagger/doc.json", "", nil, http.StatusOK},
		{"dashboard requires credentials", http.MethodGet, "/api/v1/dashboard", "", nil, http.StatusUnauthorized},
		{"dashboard with api key", http.MethodGet, "/api/v1/dashboard", "", map[string]string{"x-api-key": apiKey}, http.StatusOK},
		{"dashboard with wrong api key", http.MethodGet, "/api/v1/dashboard", "", map[string]string{"x-api-key": "nope"}, http.StatusUnauthorized},
		{"dashboard with token", http.MethodGet, "/api/v1/dashboard", "", map[string]string{"Authorization": token(t)}, http.StatusOK},
		{"frontend path", http.MethodGet, "/api/dashboard-data", "", map[string]string{"x-api-key": apiKey}, http.StatusOK},
		{"frontend path requires credentials", http.MethodGet, "/api/dashboard-data", "", nil, http.StatusUnauthorized},
		{"overview", http.MethodGet, "/api/v1/dashboard/overview", "", map[string]string{"x-api-key": apiKey}, http.StatusOK},
		{"agents", http.MethodGet, "/api/v1/dashboard/agents", "", map[string]string{"x-api-key": apiKey}, http.StatusOK},
		{"fiscal calendar", http.MethodGet, "/api/v1/fiscal/calendar", "", map[string]string{"x-api-key": apiKey}, http.StatusOK},
		{"quota list for any user", http.MethodGet, "/api/v1/quotas", "", map[string]string{"Authorization": token(t)}, http.StatusOK},
		{"quota write needs admin", http.MethodPut, "/api/v1/quotas/APAC", `{"fiscalYear":"2024-2025","amount":1}`, map[string]string{"Authorization": token(t)}, http.StatusForbidden},
		{"quota write as admin", http.MethodPut, "/api/v1/quotas/APAC", `{"fiscalYear":"2024-2025","amount":1}`, map[string]string{"Authorization": token(t, auth.RoleAdmin)}, http.StatusOK},
		{"refresh needs admin", http.MethodPost, "/api/v1/refresh", "", map[string]string{"Authorization": token(t)}, http.StatusForbidden},
		{"refresh without upstream", http.MethodPost, "/api/v1/refresh", "", map[string]string{"x-api-key": apiKey}, http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", map[string]string{"x-api-key": apiKey}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_OpenWhenAuthNotRequired(t *testing.T) {
	h := newHandler(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/quotas/EMEA",
		strings.NewReader(`{"fiscalYear":"2024-2025","amount":5}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
