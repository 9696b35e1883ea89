package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "not found error",
			err:             services.ErrMovieNotFound.WithDetail("id", uuid.Nil.String()),
			expectedStatus:  http.StatusNotFound,
			expectedError:   "not_found",
			expectedMessage: "movie not found",
		},
		{
			name:            "validation error",
			err:             services.Validation("invalid room", map[string]string{"name": "name is required"}),
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "bad_request",
			expectedMessage: "invalid room",
		},
		{
			name:            "unauthorized error",
			err:             services.ErrInvalidCredentials,
			expectedStatus:  http.StatusUnauthorized,
			expectedError:   "unauthorized",
			expectedMessage: "invalid username or password",
		},
		{
			name:            "forbidden error",
			err:             services.ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedError:   "forbidden",
			expectedMessage: "access forbidden",
		},
		{
			name:            "conflict error",
			err:             services.ErrSeatAlreadyReserved.WithDetail("seats", "A1,A2"),
			expectedStatus:  http.StatusConflict,
			expectedError:   "conflict",
			expectedMessage: "seat already reserved",
		},
		{
			name:            "internal error hides the cause",
			err:             services.ErrDatabaseError.Wrap(errors.New("pq: connection refused")),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An internal error occurred",
		},
		{
			name:            "plain error",
			err:             errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
			assert.NotContains(t, response.Message, "pq:")
		})
	}
}

func TestHandleServiceError_Details(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, services.ErrSeatAlreadyReserved.WithDetail("seats", "A1,A2"), zap.NewNop())

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "A1,A2", response.Details["seats"])
}

func TestHandleServiceError_Nil(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleDecodeError(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleDecodeError(w, errors.New("invalid character"), zap.NewNop())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid request body")
	})

	t.Run("oversized body", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleDecodeError(w, utils.ErrBodyTooLarge, zap.NewNop())
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("unknown field is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"ana","password":"x","extra":1}`))
		w := httptest.NewRecorder()

		var dst LoginRequest
		assert.False(t, decodeAndValidate(w, req, &dst, zap.NewNop()))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"ana"}`))
		w := httptest.NewRecorder()

		var dst LoginRequest
		assert.False(t, decodeAndValidate(w, req, &dst, zap.NewNop()))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Contains(t, response.Details, "password")
	})

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"ana","password":"secret"}`))
		w := httptest.NewRecorder()

		var dst LoginRequest
		assert.True(t, decodeAndValidate(w, req, &dst, zap.NewNop()))
		assert.Equal(t, "ana", dst.Username)
	})
}
