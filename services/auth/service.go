// Package auth implements login, registration and the bootstrap administrator
// on top of the credential store.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	authn "github.com/joaobarbosa/cinema-api/auth"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"go.uber.org/zap"
)

const (
	defaultUserLimit = 50
	maxUserLimit     = 200
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// AuthService handles credentials and token issuance
type AuthService struct {
	users   repositories.UserRepository
	tokens  TokenIssuer
	auditor audit.Recorder
	logger  *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users repositories.UserRepository, tokens TokenIssuer, auditor audit.Recorder, logger *zap.Logger) *AuthService {
	if auditor == nil {
		auditor = audit.Nop
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		auditor: auditor,
		logger:  logger,
	}
}

// Login verifies the credentials and issues a token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, services.Validation("username and password are required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		// Burn a comparison so response time does not reveal which usernames exist
		_ = authn.CheckPassword(s.fallbackHash(), password)
		s.loginFailed(ctx, username, nil)
		return nil, services.ErrInvalidCredentials
	}

	if err := authn.CheckPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, authn.ErrPasswordMismatch) {
			s.logger.Error("password check failed", zap.String("username", username), zap.Error(err))
		}
		s.loginFailed(ctx, username, &user.ID)
		return nil, services.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, services.WrapInternal("failed to issue token", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionLogin,
		ResourceType: "user",
		ResourceID:   &user.ID,
		UserID:       &user.ID,
	})
	s.logger.Info("user logged in", zap.String("username", user.Username))

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username string, userID *uuid.UUID) {
	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionLoginFailed,
		ResourceType: "user",
		ResourceID:   userID,
		Details:      map[string]string{"username": username},
	})
	s.logger.Warn("login failed", zap.String("username", username))
}

func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		hash, err := authn.HashPassword(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

// Register creates an account
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, services.Validation("invalid registration", fields)
	}

	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, services.ErrInvalidRole.WithDetail("role", in.Role)
	}

	user, err := s.createUser(ctx, username, in.Password, role)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionUserRegistered,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      map[string]string{"username": user.Username, "role": string(user.Role)},
	})
	s.logger.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, username, password string, role models.UserRole) (*models.User, error) {
	hash, err := authn.HashPassword(password)
	if err != nil {
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(username, hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrUserExists.WithDetail("username", username)
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return user, nil
}

// EnsureBootstrapAdmin creates the configured administrator when it does not
// exist yet. It reports whether a user was created.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		s.logger.Debug("bootstrap admin not configured")
		return false, nil
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, services.ErrDatabaseError.Wrap(err)
	}

	if _, err := s.createUser(ctx, username, password, models.RoleAdmin); err != nil {
		// Another instance won the race
		if errors.Is(err, services.ErrUserExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("bootstrap admin created", zap.String("username", username))
	return true, nil
}

// CurrentUser returns the user behind an authenticated principal
func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound.WithDetail("id", id.String())
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return user, nil
}

// ListUsers pages through the credential store
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return users, nil
}
