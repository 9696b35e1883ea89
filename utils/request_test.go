package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr error
		check   func(t *testing.T, b body, err error)
	}{
		{
			name:    "valid",
			payload: `{"title":"Alien"}`,
			check: func(t *testing.T, b body, err error) {
				require.NoError(t, err)
				assert.Equal(t, "Alien", b.Title)
			},
		},
		{
			name:    "empty",
			payload: ``,
			check: func(t *testing.T, _ body, err error) {
				assert.ErrorIs(t, err, ErrEmptyBody)
			},
		},
		{
			name:    "unknown field",
			payload: `{"title":"Alien","year":1979}`,
			check: func(t *testing.T, _ body, err error) {
				assert.ErrorContains(t, err, "unknown field")
			},
		},
		{
			name:    "trailing object",
			payload: `{"title":"a"}{"title":"b"}`,
			check: func(t *testing.T, _ body, err error) {
				assert.Error(t, err)
			},
		},
		{
			name:    "too large",
			payload: `{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
			check: func(t *testing.T, _ body, err error) {
				assert.ErrorIs(t, err, ErrBodyTooLarge)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()

			var b body
			err := DecodeJSON(w, r, &b)
			tt.check(t, b, err)
		})
	}
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()

	router := chi.NewRouter()
	var got uuid.UUID
	var gotErr error
	router.Get("/movies/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = URLParamUUID(r, "id")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/movies/"+id.String(), nil))
	require.NoError(t, gotErr)
	assert.Equal(t, id, got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/movies/42", nil))
	assert.Error(t, gotErr)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&offset=-1&page=abc", nil)

	n, err := QueryInt(r, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = QueryInt(r, "missing", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = QueryInt(r, "offset", 0)
	assert.Error(t, err)

	_, err = QueryInt(r, "page", 0)
	assert.Error(t, err)
}
