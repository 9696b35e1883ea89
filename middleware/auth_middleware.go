package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/joaobarbosa/cinema-api/auth"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// errUnknownPrincipal marks a valid token whose user no longer exists
var errUnknownPrincipal = errors.New("token subject no longer exists")

// TokenValidator defines the interface for validating bearer tokens
type TokenValidator interface {
	// Validate verifies a token and returns its claims
	Validate(token string) (*auth.Claims, error)
}

// UserLookup loads the user a token was issued for
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	users     UserLookup
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, users UserLookup, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		users:     users,
		logger:    logger,
	}
}

// Authenticate resolves the bearer token, when there is one, into a Principal on
// the request context. Requests without a usable token continue anonymously;
// RequireAuth decides whether that is acceptable.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.validator.Validate(token)
		if err != nil {
			m.logger.Debug("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			next.ServeHTTP(w, r.WithContext(withAuthError(ctx, err)))
			return
		}

		user, err := m.users.GetByUsername(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				m.logger.Warn("token subject not found",
					zap.String("request_id", requestID),
					zap.String("sub", claims.Subject))
				next.ServeHTTP(w, r.WithContext(withAuthError(ctx, errUnknownPrincipal)))
				return
			}
			m.logger.Error("failed to load principal",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "An internal error occurred")
			return
		}
		if user.ID != claims.UserID {
			// username reused by a different account since the token was issued
			next.ServeHTTP(w, r.WithContext(withAuthError(ctx, errUnknownPrincipal)))
			return
		}

		ctx = WithPrincipal(ctx, &Principal{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		})

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", user.Username),
			zap.String("role", string(user.Role)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that carry no authenticated principal
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if GetPrincipalFromContext(ctx) != nil {
			next.ServeHTTP(w, r)
			return
		}

		authErr := GetAuthErrorFromContext(ctx)
		m.logger.Warn("unauthenticated request",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.String("path", r.URL.Path),
			zap.NamedError("token_error", authErr))
		_ = utils.WriteUnauthorized(w, unauthorizedMessage(authErr))
	})
}

// RequireRole is a middleware that requires a specific role. Use after RequireAuth.
func (m *AuthMiddleware) RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			principal := GetPrincipalFromContext(ctx)
			if principal == nil {
				_ = utils.WriteUnauthorized(w, unauthorizedMessage(GetAuthErrorFromContext(ctx)))
				return
			}

			if !principal.HasRole(role) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("required_role", string(role)),
					zap.String("user_role", string(principal.Role)))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case err == nil:
		return "Authentication required"
	case errors.Is(err, auth.ErrTokenExpired):
		return "Token expired"
	default:
		return "Invalid or expired token"
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
