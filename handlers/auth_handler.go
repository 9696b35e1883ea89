package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/internal/observability"
	"github.com/joaobarbosa/cinema-api/middleware"
	"github.com/joaobarbosa/cinema-api/models"
	authsvc "github.com/joaobarbosa/cinema-api/services/auth"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN user admin"`
}

// AuthService defines the account operations the handlers need
type AuthService interface {
	Login(ctx context.Context, username, password string) (*authsvc.LoginResult, error)
	Register(ctx context.Context, in authsvc.RegisterInput) (*models.User, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// AuthHandler handles login, registration and user lookups
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.Register(r.Context(), authsvc.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	observability.FromContext(r.Context(), h.logger).Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	_ = utils.WriteCreated(w, user)
}

// HandleMe handles GET /api/v1/users/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleListUsers handles GET /api/v1/users
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, users)
}

// pagination reads limit and offset; a zero limit lets the service pick its default
func pagination(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int, int, bool) {
	limit, err := utils.QueryInt(r, "limit", 0)
	if err != nil {
		HandleValidationError(w, err, logger)
		return 0, 0, false
	}
	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil {
		HandleValidationError(w, err, logger)
		return 0, 0, false
	}
	return limit, offset, true
}
