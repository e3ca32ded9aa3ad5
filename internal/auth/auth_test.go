package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/sales-dashboard-api/internal/auth"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret-with-enough-length"
	testIssuer = "sales-dashboard"
	testAPIKey = "key-123"
)

func TestJWTValidator_ValidateToken(t *testing.T) {
	v := auth.NewJWTValidator(testSecret, testIssuer)

	token, err := v.IssueToken("user-1", "Alice", []string{auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	p, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.Subject)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, auth.MethodJWT, p.Method)
	assert.True(t, p.IsAdmin())
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := auth.NewJWTValidator(testSecret, testIssuer)

	expired, err := v.IssueToken("user-1", "", nil, -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := auth.NewJWTValidator(testSecret, "someone-else").IssueToken("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	otherSecret, err := auth.NewJWTValidator("a-different-secret-value", testIssuer).IssueToken("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.IssueToken("", "", nil, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  testIssuer,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"expired", expired, auth.ErrExpiredToken},
		{"wrong issuer", otherIssuer, auth.ErrInvalidToken},
		{"wrong secret", otherSecret, auth.ErrInvalidToken},
		{"missing subject", noSubject, auth.ErrInvalidToken},
		{"missing expiry", noExpiry, auth.ErrInvalidToken},
		{"unexpected algorithm", hs512, auth.ErrInvalidToken},
		{"garbage", "not-a-jwt", auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestJWTValidator_Disabled(t *testing.T) {
	v := auth.NewJWTValidator("", "")
	assert.False(t, v.Enabled())

	_, err := v.ValidateToken("anything")
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}

func newMiddleware(required bool) *auth.Middleware {
	return auth.NewMiddleware(&config.AuthConfig{
		Required:  required,
		APIKey:    testAPIKey,
		JWTSecret: testSecret,
		JWTIssuer: testIssuer,
	}, zap.NewNop())
}

// echoPrincipal writes the authenticated subject, or "anonymous"
var echoPrincipal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.FromContext(r.Context()); ok {
		_, _ = w.Write([]byte(p.Subject))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
})

func TestMiddleware_Authenticate(t *testing.T) {
	v := auth.NewJWTValidator(testSecret, testIssuer)
	token, err := v.IssueToken("user-1", "Alice", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		required   bool
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{"api key", true, map[string]string{"x-api-key": testAPIKey}, http.StatusOK, "api-key"},
		{"bad api key", false, map[string]string{"x-api-key": "nope"}, http.StatusUnauthorized, ""},
		{"bearer token", true, map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, "user-1"},
		{"lowercase bearer", true, map[string]string{"Authorization": "bearer " + token}, http.StatusOK, "user-1"},
		{"bad token", false, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"basic scheme", true, map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, ""},
		{"anonymous when required", true, nil, http.StatusUnauthorized, ""},
		{"anonymous when optional", false, nil, http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			newMiddleware(tt.required).Authenticate(echoPrincipal).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	v := auth.NewJWTValidator(testSecret, testIssuer)
	admin, err := v.IssueToken("admin-1", "", []string{auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	viewer, err := v.IssueToken("viewer-1", "", []string{"viewer"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		required   bool
		headers    map[string]string
		wantStatus int
	}{
		{"api key", true, map[string]string{"x-api-key": testAPIKey}, http.StatusOK},
		{"admin token", true, map[string]string{"Authorization": "Bearer " + admin}, http.StatusOK},
		{"viewer token", true, map[string]string{"Authorization": "Bearer " + viewer}, http.StatusForbidden},
		{"viewer token with auth optional", false, map[string]string{"Authorization": "Bearer " + viewer}, http.StatusForbidden},
		{"anonymous with auth optional", false, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMiddleware(tt.required)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			m.Authenticate(m.RequireAdmin(echoPrincipal)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
