package middleware

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// AuthErrorKey is the context key for a rejected bearer token's error
	AuthErrorKey contextKey = "auth_error"
)

// Principal is the authenticated user of a request
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     models.UserRole
}

// HasRole reports whether the principal carries the authority of role. ADMIN implies USER.
func (p *Principal) HasRole(role models.UserRole) bool {
	return p.Role.Grants(role)
}

// IsAdmin reports whether the principal is an administrator
func (p *Principal) IsAdmin() bool {
	return p.HasRole(models.RoleAdmin)
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipalFromContext retrieves the principal from context, nil when anonymous
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(*Principal); ok {
			return p
		}
	}
	return nil
}

// GetUserIDFromContext retrieves the authenticated user's ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if p := GetPrincipalFromContext(ctx); p != nil {
		return p.UserID, true
	}
	return uuid.Nil, false
}

func withAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, AuthErrorKey, err)
}

// GetAuthErrorFromContext returns why a presented bearer token was rejected, if it was
func GetAuthErrorFromContext(ctx context.Context) error {
	if val := ctx.Value(AuthErrorKey); val != nil {
		if err, ok := val.(error); ok {
			return err
		}
	}
	return nil
}
