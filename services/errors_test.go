package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "movie not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: movie not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same sentinel",
			err:    ErrSeatAlreadyReserved.WithDetail("seat_id", "x"),
			target: ErrSeatAlreadyReserved,
			want:   true,
		},
		{
			name:   "wrapped sentinel",
			err:    fmt.Errorf("create order: %w", ErrCouponInactive.Wrap(errors.New("db"))),
			target: ErrCouponInactive,
			want:   true,
		},
		{
			name:   "same type different message",
			err:    ErrMovieNotFound,
			target: ErrRoomNotFound,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    ErrMovieNotFound,
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrRoomNotFound.WithDetail("id", "abc").WithDetail("op", "get")

	assert.Equal(t, "abc", err.Details["id"])
	assert.Equal(t, "get", err.Details["op"])
	assert.Empty(t, ErrRoomNotFound.Details)
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"not found", ErrOrderNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"nil is not found", nil, IsNotFoundError, false},
		{"validation", ErrCouponPercentRange, IsValidationError, true},
		{"validation from helper", Validation("bad", map[string]string{"title": "required"}), IsValidationError, true},
		{"unauthorized", ErrInvalidCredentials, IsUnauthorizedError, true},
		{"forbidden", ErrForbidden, IsForbiddenError, true},
		{"conflict", ErrUserExists, IsConflictError, true},
		{"internal", ErrDatabaseError, IsInternalError, true},
		{"regular error", errors.New("regular"), IsInternalError, false},
		{"validation is not conflict", ErrInvalidInput, IsConflictError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrSeatNotFound))
	assert.Equal(t, ErrorTypeConflict, GetErrorType(fmt.Errorf("x: %w", ErrCouponCodeTaken)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestGetErrorDetails(t *testing.T) {
	err := Validation("validation failed", map[string]string{"rows": "must be at least 1"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "must be at least 1", details["rows"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapInternal(t *testing.T) {
	baseErr := errors.New("database connection failed")
	wrapped := WrapInternal("failed to connect", baseErr)

	assert.True(t, IsInternalError(wrapped))
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}
