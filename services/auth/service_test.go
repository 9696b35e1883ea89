package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	authn "github.com/joaobarbosa/cinema-api/auth"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/repositories/mocks"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recorder) actions() []models.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func newTestService(t *testing.T) (*AuthService, *mocks.UserRepository, *recorder) {
	t.Helper()
	users := new(mocks.UserRepository)
	rec := &recorder{}
	tokens := authn.NewTokenService("0123456789abcdef0123456789abcdef", "cinema-api", time.Hour)
	return NewAuthService(users, tokens, rec, zap.NewNop()), users, rec
}

func userWithPassword(t *testing.T, username, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := authn.HashPassword(password)
	require.NoError(t, err)
	return models.NewUser(username, hash, role)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, users, rec := newTestService(t)
		user := userWithPassword(t, "maria", "s3cret", models.RoleUser)
		users.On("GetByUsername", ctx, "maria").Return(user, nil)

		result, err := svc.Login(ctx, "maria", "s3cret")

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, user, result.User)
		assert.True(t, result.ExpiresAt.After(time.Now()))
		assert.Equal(t, []models.AuditAction{models.AuditActionLogin}, rec.actions())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, rec := newTestService(t)
		user := userWithPassword(t, "maria", "s3cret", models.RoleUser)
		users.On("GetByUsername", ctx, "maria").Return(user, nil)

		_, err := svc.Login(ctx, "maria", "nope")

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.True(t, services.IsUnauthorizedError(err))
		assert.Equal(t, []models.AuditAction{models.AuditActionLoginFailed}, rec.actions())
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("GetByUsername", ctx, "ghost").Return(nil, repositories.ErrNotFound)

		_, err := svc.Login(ctx, "ghost", "whatever")

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("GetByUsername", ctx, "maria").Return(nil, errors.New("connection refused"))

		_, err := svc.Login(ctx, "maria", "s3cret")

		assert.True(t, services.IsInternalError(err))
	})

	t.Run("blank credentials", func(t *testing.T) {
		svc, users, _ := newTestService(t)

		_, err := svc.Login(ctx, "  ", "")

		assert.True(t, services.IsValidationError(err))
		users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	t.Run("creates user with hashed password", func(t *testing.T) {
		svc, users, rec := newTestService(t)
		users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		user, err := svc.Register(ctx, RegisterInput{Username: "joao", Password: "pw", Role: "admin"})

		require.NoError(t, err)
		assert.Equal(t, "joao", user.Username)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.NotEqual(t, "pw", user.PasswordHash)
		assert.NoError(t, authn.CheckPassword(user.PasswordHash, "pw"))
		assert.Equal(t, []models.AuditAction{models.AuditActionUserRegistered}, rec.actions())
	})

	t.Run("empty role defaults to user", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("Create", ctx, mock.Anything).Return(nil)

		user, err := svc.Register(ctx, RegisterInput{Username: "ana", Password: "pw"})

		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicate)

		_, err := svc.Register(ctx, RegisterInput{Username: "joao", Password: "pw"})

		assert.ErrorIs(t, err, services.ErrUserExists)
		assert.True(t, services.IsConflictError(err))
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, users, _ := newTestService(t)

		_, err := svc.Register(ctx, RegisterInput{Username: "joao", Password: "pw", Role: "ROOT"})

		assert.ErrorIs(t, err, services.ErrInvalidRole)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Register(ctx, RegisterInput{})

		require.True(t, services.IsValidationError(err))
		details := services.GetErrorDetails(err)
		assert.Contains(t, details, "username")
		assert.Contains(t, details, "password")
	})
}

func TestAuthService_EnsureBootstrapAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("GetByUsername", ctx, "admin").Return(nil, repositories.ErrNotFound)
		users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "admin" && u.Role == models.RoleAdmin
		})).Return(nil)

		created, err := svc.EnsureBootstrapAdmin(ctx, "admin", "admin-pass")

		require.NoError(t, err)
		assert.True(t, created)
		users.AssertExpectations(t)
	})

	t.Run("existing admin is left alone", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("GetByUsername", ctx, "admin").Return(models.NewUser("admin", "x", models.RoleAdmin), nil)

		created, err := svc.EnsureBootstrapAdmin(ctx, "admin", "admin-pass")

		require.NoError(t, err)
		assert.False(t, created)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lost race is not an error", func(t *testing.T) {
		svc, users, _ := newTestService(t)
		users.On("GetByUsername", ctx, "admin").Return(nil, repositories.ErrNotFound)
		users.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicate)

		created, err := svc.EnsureBootstrapAdmin(ctx, "admin", "admin-pass")

		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("not configured", func(t *testing.T) {
		svc, users, _ := newTestService(t)

		created, err := svc.EnsureBootstrapAdmin(ctx, "", "")

		require.NoError(t, err)
		assert.False(t, created)
		users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestService(t)
	id := uuid.New()
	users.On("GetByID", ctx, id).Return(nil, repositories.ErrNotFound)

	_, err := svc.CurrentUser(ctx, id)

	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestAuthService_ListUsers(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestService(t)
	users.On("List", ctx, maxUserLimit, 0).Return([]*models.User{}, nil)

	got, err := svc.ListUsers(ctx, 10_000, -5)

	require.NoError(t, err)
	assert.Empty(t, got)
	users.AssertExpectations(t)
}
