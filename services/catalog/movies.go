package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"go.uber.org/zap"
)

// MovieInput carries the fields of a new movie
type MovieInput struct {
	Title       string
	DurationMin int
	Rating      string
	Synopsis    string
}

// MovieUpdate changes only the non-nil fields
type MovieUpdate struct {
	Title       *string
	DurationMin *int
	Rating      *string
	Synopsis    *string
}

// MovieService manages the movie catalogue
type MovieService struct {
	movies  repositories.MovieRepository
	auditor audit.Recorder
	logger  *zap.Logger
}

// NewMovieService creates a new MovieService instance
func NewMovieService(movies repositories.MovieRepository, auditor audit.Recorder, logger *zap.Logger) *MovieService {
	if auditor == nil {
		auditor = audit.Nop
	}
	return &MovieService{movies: movies, auditor: auditor, logger: logger}
}

// Create adds a movie
func (s *MovieService) Create(ctx context.Context, in MovieInput) (*models.Movie, error) {
	movie := models.NewMovie(strings.TrimSpace(in.Title), in.DurationMin, in.Rating, in.Synopsis)
	if err := validateMovie(movie); err != nil {
		return nil, err
	}

	if err := s.movies.Create(ctx, movie); err != nil {
		return nil, translate(err, movie.ID, nil, nil, nil)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionMovieCreated,
		ResourceType: "movie",
		ResourceID:   &movie.ID,
		Details:      map[string]string{"title": movie.Title},
	})
	s.logger.Info("movie created", zap.String("id", movie.ID.String()), zap.String("title", movie.Title))
	return movie, nil
}

// Get returns one movie
func (s *MovieService) Get(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, id, services.ErrMovieNotFound, nil, nil)
	}
	return movie, nil
}

// List returns every movie
func (s *MovieService) List(ctx context.Context) ([]*models.Movie, error) {
	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return movies, nil
}

// Update applies the present fields of upd
func (s *MovieService) Update(ctx context.Context, id uuid.UUID, upd MovieUpdate) (*models.Movie, error) {
	movie, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		movie.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.DurationMin != nil {
		movie.DurationMin = *upd.DurationMin
	}
	if upd.Rating != nil {
		movie.Rating = *upd.Rating
	}
	if upd.Synopsis != nil {
		movie.Synopsis = *upd.Synopsis
	}
	if err := validateMovie(movie); err != nil {
		return nil, err
	}
	movie.UpdatedAt = time.Now().UTC()

	if err := s.movies.Update(ctx, movie); err != nil {
		return nil, translate(err, id, services.ErrMovieNotFound, nil, nil)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionMovieUpdated,
		ResourceType: "movie",
		ResourceID:   &movie.ID,
	})
	return movie, nil
}

// Delete removes a movie
func (s *MovieService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.movies.Delete(ctx, id); err != nil {
		return translate(err, id, services.ErrMovieNotFound, nil, nil)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionMovieDeleted,
		ResourceType: "movie",
		ResourceID:   &id,
	})
	s.logger.Info("movie deleted", zap.String("id", id.String()))
	return nil
}

func validateMovie(m *models.Movie) error {
	fields := map[string]string{}
	if m.Title == "" {
		fields["title"] = "title is required"
	}
	if m.DurationMin <= 0 {
		fields["duration_min"] = "duration must be positive"
	}
	if len(fields) > 0 {
		return services.Validation("invalid movie", fields)
	}
	return nil
}
