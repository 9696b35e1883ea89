package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"go.uber.org/zap"
)

const movieColumns = `id, title, duration_min, rating, synopsis, created_at, updated_at`

// MovieRepository implements the repositories.MovieRepository interface
type MovieRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *DB, logger *zap.Logger) repositories.MovieRepository {
	return &MovieRepository{db: db, logger: logger}
}

// Create creates a new movie
func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	query := `
		INSERT INTO movies (id, title, duration_min, rating, synopsis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		movie.ID,
		movie.Title,
		movie.DurationMin,
		movie.Rating,
		movie.Synopsis,
		movie.CreatedAt,
		movie.UpdatedAt,
	)
	if err != nil {
		return mapError("failed to create movie", err)
	}

	r.logger.Debug("movie created", zap.String("id", movie.ID.String()))
	return nil
}

// GetByID retrieves a movie by ID
func (r *MovieRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	movie, err := scanMovie(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get movie %s", id), err)
	}
	return movie, nil
}

// List retrieves all movies ordered by title
func (r *MovieRepository) List(ctx context.Context) ([]*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY title ASC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []*models.Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie rows: %w", err)
	}
	return movies, nil
}

// Update updates a movie
func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	query := `
		UPDATE movies
		SET title = $2,
		    duration_min = $3,
		    rating = $4,
		    synopsis = $5,
		    updated_at = $6
		WHERE id = $1
	`

	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		movie.ID,
		movie.Title,
		movie.DurationMin,
		movie.Rating,
		movie.Synopsis,
		movie.UpdatedAt,
	)
	if err != nil {
		return mapError("failed to update movie", err)
	}
	return expectAffected("update movie", res)
}

// Delete deletes a movie
func (r *MovieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return mapError("failed to delete movie", err)
	}
	if err := expectAffected("delete movie", res); err != nil {
		return err
	}

	r.logger.Debug("movie deleted", zap.String("id", id.String()))
	return nil
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	m := &models.Movie{}
	if err := row.Scan(&m.ID, &m.Title, &m.DurationMin, &m.Rating, &m.Synopsis, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
