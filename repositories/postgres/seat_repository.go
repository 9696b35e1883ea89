package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const seatColumns = `id, room_id, row_label, col_number, label`

// SeatRepository implements the repositories.SeatRepository interface
type SeatRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSeatRepository creates a new seat repository
func NewSeatRepository(db *DB, logger *zap.Logger) repositories.SeatRepository {
	return &SeatRepository{db: db, logger: logger}
}

// Create creates a new seat; ErrDuplicate when the label already exists in the room
func (r *SeatRepository) Create(ctx context.Context, seat *models.Seat) error {
	query := `
		INSERT INTO seats (id, room_id, row_label, col_number, label)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seat.ID, seat.RoomID, seat.RowLabel, seat.ColNumber, seat.Label)
	if err != nil {
		return mapError("failed to create seat", err)
	}

	r.logger.Debug("seat created", zap.String("id", seat.ID.String()), zap.String("label", seat.Label))
	return nil
}

// GetByID retrieves a seat by ID
func (r *SeatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := scanSeat(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get seat %s", id), err)
	}
	return seat, nil
}

// List retrieves every seat
func (r *SeatRepository) List(ctx context.Context) ([]*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats ORDER BY room_id, row_label, col_number`
	return r.query(ctx, query)
}

// ListByRoom retrieves the seats of one room
func (r *SeatRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE room_id = $1 ORDER BY row_label, col_number`
	return r.query(ctx, query, roomID)
}

// StatsByRoom counts the seats of a room and reports the largest column used
func (r *SeatRepository) StatsByRoom(ctx context.Context, roomID uuid.UUID) (repositories.SeatStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(col_number), 0), COUNT(DISTINCT row_label)
		FROM seats
		WHERE room_id = $1
	`

	var stats repositories.SeatStats
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, roomID).Scan(&stats.Count, &stats.MaxCol, &stats.Rows)
	if err != nil {
		return stats, fmt.Errorf("failed to get seat stats: %w", err)
	}
	return stats, nil
}

// RowUsage counts the distinct rows of a room, leaving out one seat, and
// reports whether rowLabel is among them
func (r *SeatRepository) RowUsage(ctx context.Context, roomID uuid.UUID, rowLabel string, exclude uuid.UUID) (repositories.RowUsage, error) {
	query := `
		SELECT COUNT(DISTINCT row_label), COALESCE(BOOL_OR(row_label = $2), FALSE)
		FROM seats
		WHERE room_id = $1 AND id <> $3
	`

	var usage repositories.RowUsage
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, roomID, rowLabel, exclude).Scan(&usage.Rows, &usage.InUse)
	if err != nil {
		return usage, fmt.Errorf("failed to get row usage: %w", err)
	}
	return usage, nil
}

// LockByIDs selects the seats FOR UPDATE. Must run inside a transaction.
func (r *SeatRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	return r.query(ctx, query, pq.Array(uuidStrings(ids)))
}

// Update updates a seat
func (r *SeatRepository) Update(ctx context.Context, seat *models.Seat) error {
	query := `
		UPDATE seats
		SET room_id = $2,
		    row_label = $3,
		    col_number = $4,
		    label = $5
		WHERE id = $1
	`

	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		seat.ID, seat.RoomID, seat.RowLabel, seat.ColNumber, seat.Label)
	if err != nil {
		return mapError("failed to update seat", err)
	}
	return expectAffected("update seat", res)
}

// Delete deletes a seat; ErrReferenced when an order item points at it
func (r *SeatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM seats WHERE id = $1`, id)
	if err != nil {
		return mapError("failed to delete seat", err)
	}
	return expectAffected("delete seat", res)
}

func (r *SeatRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Seat, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query seats: %w", err)
	}
	defer rows.Close()

	seats := []*models.Seat{}
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seat rows: %w", err)
	}
	return seats, nil
}

func scanSeat(row rowScanner) (*models.Seat, error) {
	s := &models.Seat{}
	if err := row.Scan(&s.ID, &s.RoomID, &s.RowLabel, &s.ColNumber, &s.Label); err != nil {
		return nil, err
	}
	return s, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
