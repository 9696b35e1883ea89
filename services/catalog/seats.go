package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"go.uber.org/zap"
)

// SeatInput carries the fields of a new seat. An empty Label defaults to
// row label followed by column number.
type SeatInput struct {
	RoomID    uuid.UUID
	RowLabel  string
	ColNumber int
	Label     string
}

// SeatUpdate changes only the non-nil fields
type SeatUpdate struct {
	RoomID    *uuid.UUID
	RowLabel  *string
	ColNumber *int
	Label     *string
}

// SeatService manages the seats of each room
type SeatService struct {
	seats   repositories.SeatRepository
	rooms   repositories.RoomRepository
	txMgr   repositories.TransactionManager
	auditor audit.Recorder
	logger  *zap.Logger
}

// NewSeatService creates a new SeatService instance
func NewSeatService(
	seats repositories.SeatRepository,
	rooms repositories.RoomRepository,
	txMgr repositories.TransactionManager,
	auditor audit.Recorder,
	logger *zap.Logger,
) *SeatService {
	if auditor == nil {
		auditor = audit.Nop
	}
	return &SeatService{seats: seats, rooms: rooms, txMgr: txMgr, auditor: auditor, logger: logger}
}

// Create adds a seat to a room. The column must fit the room and the room
// must have capacity left.
func (s *SeatService) Create(ctx context.Context, in SeatInput) (*models.Seat, error) {
	seat := models.NewSeat(in.RoomID, strings.TrimSpace(in.RowLabel), in.ColNumber, strings.TrimSpace(in.Label))
	if err := validateSeat(seat); err != nil {
		return nil, err
	}

	err := services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		room, err := s.lockRoom(ctx, seat.RoomID)
		if err != nil {
			return err
		}
		if err := s.checkFits(ctx, room, seat, true, true); err != nil {
			return err
		}
		if err := s.seats.Create(ctx, seat); err != nil {
			return translate(err, seat.ID, nil,
				services.ErrSeatLabelTaken.WithDetail("label", seat.Label),
				services.ErrRoomNotFound.WithDetail("id", seat.RoomID.String()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionSeatCreated,
		ResourceType: "seat",
		ResourceID:   &seat.ID,
		Details:      map[string]string{"room_id": seat.RoomID.String(), "label": seat.Label},
	})
	s.logger.Info("seat created",
		zap.String("id", seat.ID.String()),
		zap.String("room_id", seat.RoomID.String()),
		zap.String("label", seat.Label))
	return seat, nil
}

// Get returns one seat
func (s *SeatService) Get(ctx context.Context, id uuid.UUID) (*models.Seat, error) {
	seat, err := s.seats.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, id, services.ErrSeatNotFound, nil, nil)
	}
	return seat, nil
}

// List returns every seat
func (s *SeatService) List(ctx context.Context) ([]*models.Seat, error) {
	seats, err := s.seats.List(ctx)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return seats, nil
}

// Update applies the present fields of upd. A seat whose label was derived
// from its position is relabelled when it moves, unless a label is given.
func (s *SeatService) Update(ctx context.Context, id uuid.UUID, upd SeatUpdate) (*models.Seat, error) {
	seat, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Seat, error) {
		seat, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		derived := seat.Label == models.DefaultSeatLabel(seat.RowLabel, seat.ColNumber)
		previousRow := seat.RowLabel
		moved := false
		if upd.RoomID != nil && *upd.RoomID != seat.RoomID {
			seat.RoomID = *upd.RoomID
			moved = true
		}
		if upd.RowLabel != nil {
			seat.RowLabel = strings.TrimSpace(*upd.RowLabel)
		}
		if upd.ColNumber != nil {
			seat.ColNumber = *upd.ColNumber
		}
		switch {
		case upd.Label != nil:
			seat.Label = strings.TrimSpace(*upd.Label)
		case derived:
			seat.Label = models.DefaultSeatLabel(seat.RowLabel, seat.ColNumber)
		}
		if err := validateSeat(seat); err != nil {
			return nil, err
		}

		room, err := s.lockRoom(ctx, seat.RoomID)
		if err != nil {
			return nil, err
		}
		if err := s.checkFits(ctx, room, seat, moved, moved || seat.RowLabel != previousRow); err != nil {
			return nil, err
		}

		if err := s.seats.Update(ctx, seat); err != nil {
			return nil, translate(err, id, services.ErrSeatNotFound,
				services.ErrSeatLabelTaken.WithDetail("label", seat.Label),
				services.ErrRoomNotFound.WithDetail("id", seat.RoomID.String()))
		}
		return seat, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionSeatUpdated,
		ResourceType: "seat",
		ResourceID:   &seat.ID,
	})
	return seat, nil
}

// Delete removes a seat that no order refers to
func (s *SeatService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.seats.Delete(ctx, id); err != nil {
		return translate(err, id, services.ErrSeatNotFound, nil, services.ErrSeatInUse)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionSeatDeleted,
		ResourceType: "seat",
		ResourceID:   &id,
	})
	return nil
}

// lockRoom holds the room row until the transaction ends so concurrent
// seat changes in the same room see each other's counts.
func (s *SeatService) lockRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.rooms.LockByID(ctx, id)
	if err != nil {
		return nil, translate(err, id, services.ErrRoomNotFound, nil, nil)
	}
	return room, nil
}

// checkFits enforces the room geometry. Capacity is only checked when the
// seat is new to the room and the row count when it lands in another row.
func (s *SeatService) checkFits(ctx context.Context, room *models.Room, seat *models.Seat, entering, rowChanged bool) error {
	if seat.ColNumber > room.Cols {
		return services.ErrSeatOutsideRoom.
			WithDetail("col_number", seat.ColNumber).
			WithDetail("room_cols", room.Cols)
	}

	if rowChanged {
		usage, err := s.seats.RowUsage(ctx, room.ID, seat.RowLabel, seat.ID)
		if err != nil {
			return services.ErrDatabaseError.Wrap(err)
		}
		if !usage.InUse && usage.Rows >= room.Rows {
			return services.ErrSeatOutsideRoom.
				WithDetail("row_label", seat.RowLabel).
				WithDetail("room_rows", room.Rows)
		}
	}

	if !entering {
		return nil
	}

	stats, err := s.seats.StatsByRoom(ctx, room.ID)
	if err != nil {
		return services.ErrDatabaseError.Wrap(err)
	}
	if stats.Count >= room.Capacity() {
		return services.ErrRoomFull.WithDetail("capacity", room.Capacity())
	}
	return nil
}

func validateSeat(seat *models.Seat) error {
	fields := map[string]string{}
	if seat.RoomID == uuid.Nil {
		fields["room_id"] = "room_id is required"
	}
	if seat.RowLabel == "" {
		fields["row_label"] = "row_label is required"
	}
	if seat.ColNumber < 1 {
		fields["col_number"] = "col_number must be at least 1"
	}
	if seat.Label == "" {
		fields["label"] = "label is required"
	}
	if len(fields) > 0 {
		return services.Validation("invalid seat", fields)
	}
	return nil
}
