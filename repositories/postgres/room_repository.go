package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"go.uber.org/zap"
)

const roomColumns = `id, name, rows, cols, created_at, updated_at`

// RoomRepository implements the repositories.RoomRepository interface
type RoomRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *DB, logger *zap.Logger) repositories.RoomRepository {
	return &RoomRepository{db: db, logger: logger}
}

// Create creates a new room; ErrDuplicate when the name is taken
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name, rows, cols, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		room.ID, room.Name, room.Rows, room.Cols, room.CreatedAt, room.UpdatedAt)
	if err != nil {
		return mapError("failed to create room", err)
	}

	r.logger.Debug("room created", zap.String("id", room.ID.String()), zap.String("name", room.Name))
	return nil
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get room %s", id), err)
	}
	return room, nil
}

// LockByID retrieves a room FOR UPDATE. Must run inside a transaction.
func (r *RoomRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`

	room, err := scanRoom(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("lock room %s", id), err)
	}
	return room, nil
}

// List retrieves all rooms ordered by name
func (r *RoomRepository) List(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name ASC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}
	return rooms, nil
}

// Update updates a room
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $2,
		    rows = $3,
		    cols = $4,
		    updated_at = $5
		WHERE id = $1
	`

	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		room.ID, room.Name, room.Rows, room.Cols, room.UpdatedAt)
	if err != nil {
		return mapError("failed to update room", err)
	}
	return expectAffected("update room", res)
}

// Delete deletes a room and, by cascade, its seats
func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return mapError("failed to delete room", err)
	}
	if err := expectAffected("delete room", res); err != nil {
		return err
	}

	r.logger.Debug("room deleted", zap.String("id", id.String()))
	return nil
}

func scanRoom(row rowScanner) (*models.Room, error) {
	room := &models.Room{}
	if err := row.Scan(&room.ID, &room.Name, &room.Rows, &room.Cols, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	return room, nil
}
