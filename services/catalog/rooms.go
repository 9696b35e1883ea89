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

// RoomInput carries the fields of a new room
type RoomInput struct {
	Name string
	Rows int
	Cols int
}

// RoomUpdate changes only the non-nil fields
type RoomUpdate struct {
	Name *string
	Rows *int
	Cols *int
}

// RoomService manages screening rooms
type RoomService struct {
	rooms   repositories.RoomRepository
	seats   repositories.SeatRepository
	txMgr   repositories.TransactionManager
	auditor audit.Recorder
	logger  *zap.Logger
}

// NewRoomService creates a new RoomService instance
func NewRoomService(
	rooms repositories.RoomRepository,
	seats repositories.SeatRepository,
	txMgr repositories.TransactionManager,
	auditor audit.Recorder,
	logger *zap.Logger,
) *RoomService {
	if auditor == nil {
		auditor = audit.Nop
	}
	return &RoomService{rooms: rooms, seats: seats, txMgr: txMgr, auditor: auditor, logger: logger}
}

// Create adds a room
func (s *RoomService) Create(ctx context.Context, in RoomInput) (*models.Room, error) {
	room := models.NewRoom(strings.TrimSpace(in.Name), in.Rows, in.Cols)
	if err := validateRoom(room); err != nil {
		return nil, err
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, translate(err, room.ID, nil, services.ErrRoomNameTaken.WithDetail("name", room.Name), nil)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionRoomCreated,
		ResourceType: "room",
		ResourceID:   &room.ID,
		Details:      map[string]interface{}{"name": room.Name, "rows": room.Rows, "cols": room.Cols},
	})
	s.logger.Info("room created", zap.String("id", room.ID.String()), zap.String("name", room.Name))
	return room, nil
}

// Get returns one room
func (s *RoomService) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, id, services.ErrRoomNotFound, nil, nil)
	}
	return room, nil
}

// List returns every room
func (s *RoomService) List(ctx context.Context) ([]*models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return rooms, nil
}

// Update applies the present fields of upd. A room cannot shrink below the
// seats it already holds; the room row stays locked while seats are counted.
func (s *RoomService) Update(ctx context.Context, id uuid.UUID, upd RoomUpdate) (*models.Room, error) {
	room, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Room, error) {
		room, err := s.rooms.LockByID(ctx, id)
		if err != nil {
			return nil, translate(err, id, services.ErrRoomNotFound, nil, nil)
		}

		resized := false
		if upd.Name != nil {
			room.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Rows != nil && *upd.Rows != room.Rows {
			room.Rows = *upd.Rows
			resized = true
		}
		if upd.Cols != nil && *upd.Cols != room.Cols {
			room.Cols = *upd.Cols
			resized = true
		}
		if err := validateRoom(room); err != nil {
			return nil, err
		}

		if resized {
			stats, err := s.seats.StatsByRoom(ctx, id)
			if err != nil {
				return nil, services.ErrDatabaseError.Wrap(err)
			}
			if stats.MaxCol > room.Cols || stats.Rows > room.Rows || stats.Count > room.Capacity() {
				return nil, services.ErrRoomShrink.
					WithDetail("seats", stats.Count).
					WithDetail("max_col", stats.MaxCol).
					WithDetail("rows_in_use", stats.Rows)
			}
		}

		room.UpdatedAt = time.Now().UTC()
		if err := s.rooms.Update(ctx, room); err != nil {
			return nil, translate(err, id, services.ErrRoomNotFound, services.ErrRoomNameTaken.WithDetail("name", room.Name), nil)
		}
		return room, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionRoomUpdated,
		ResourceType: "room",
		ResourceID:   &room.ID,
	})
	return room, nil
}

// Delete removes a room together with its seats
func (s *RoomService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return translate(err, id, services.ErrRoomNotFound, nil, services.ErrRoomInUse)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionRoomDeleted,
		ResourceType: "room",
		ResourceID:   &id,
	})
	s.logger.Info("room deleted", zap.String("id", id.String()))
	return nil
}

// Seats lists the seats of a room
func (s *RoomService) Seats(ctx context.Context, id uuid.UUID) ([]*models.Seat, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	seats, err := s.seats.ListByRoom(ctx, id)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return seats, nil
}

func validateRoom(r *models.Room) error {
	fields := map[string]string{}
	if r.Name == "" {
		fields["name"] = "name is required"
	}
	if r.Rows < 1 {
		fields["rows"] = "rows must be at least 1"
	}
	if r.Cols < 1 {
		fields["cols"] = "cols must be at least 1"
	}
	if len(fields) > 0 {
		return services.Validation("invalid room", fields)
	}
	return nil
}
