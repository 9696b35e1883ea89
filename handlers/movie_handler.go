package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/services/catalog"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// CreateMovieRequest represents a request to create a movie
type CreateMovieRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	DurationMin int    `json:"duration_min" validate:"required,gt=0"`
	Rating      string `json:"rating" validate:"max=16"`
	Synopsis    string `json:"synopsis"`
}

// UpdateMovieRequest represents a partial movie update
type UpdateMovieRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	DurationMin *int    `json:"duration_min,omitempty" validate:"omitempty,gt=0"`
	Rating      *string `json:"rating,omitempty" validate:"omitempty,max=16"`
	Synopsis    *string `json:"synopsis,omitempty"`
}

// MovieService defines the movie catalogue operations
type MovieService interface {
	Create(ctx context.Context, in catalog.MovieInput) (*models.Movie, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Movie, error)
	List(ctx context.Context) ([]*models.Movie, error)
	Update(ctx context.Context, id uuid.UUID, upd catalog.MovieUpdate) (*models.Movie, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MovieHandler handles movie HTTP requests
type MovieHandler struct {
	service MovieService
	logger  *zap.Logger
}

// NewMovieHandler creates a new MovieHandler
func NewMovieHandler(service MovieService, logger *zap.Logger) *MovieHandler {
	return &MovieHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/movies. An empty catalogue answers 204.
func (h *MovieHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if len(movies) == 0 {
		utils.WriteNoContent(w)
		return
	}
	_ = utils.WriteOK(w, movies)
}

// HandleGet handles GET /api/v1/movies/{id}
func (h *MovieHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	movie, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, movie)
}

// HandleCreate handles POST /api/v1/movies
func (h *MovieHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateMovieRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	movie, err := h.service.Create(r.Context(), catalog.MovieInput{
		Title:       req.Title,
		DurationMin: req.DurationMin,
		Rating:      req.Rating,
		Synopsis:    req.Synopsis,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, movie)
}

// HandleUpdate handles PUT /api/v1/movies/{id}
func (h *MovieHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateMovieRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	movie, err := h.service.Update(r.Context(), id, catalog.MovieUpdate{
		Title:       req.Title,
		DurationMin: req.DurationMin,
		Rating:      req.Rating,
		Synopsis:    req.Synopsis,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, movie)
}

// HandleDelete handles DELETE /api/v1/movies/{id}
func (h *MovieHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
