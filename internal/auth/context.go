// Package auth authenticates API requests with a static API key or an HS256 JWT.
package auth

import (
	"context"
)

// Authentication methods recorded on a principal
const (
	MethodAPIKey = "api_key"
	MethodJWT    = "jwt"
)

// RoleAdmin may trigger refreshes and edit quotas
const RoleAdmin = "admin"

// Principal is the authenticated caller of a request
type Principal struct {
	Subject string
	Name    string
	Roles   []string
	Method  string
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext extracts the principal from the context
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// HasRole checks if the principal has a specific role
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports API key callers and JWT callers with the admin role
func (p *Principal) IsAdmin() bool {
	return p.Method == MethodAPIKey || p.HasRole(RoleAdmin)
}
