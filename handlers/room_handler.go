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

// CreateRoomRequest represents a request to create a room
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Rows int    `json:"rows" validate:"required,gt=0"`
	Cols int    `json:"cols" validate:"required,gt=0"`
}

// UpdateRoomRequest represents a partial room update
type UpdateRoomRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Rows *int    `json:"rows,omitempty" validate:"omitempty,gt=0"`
	Cols *int    `json:"cols,omitempty" validate:"omitempty,gt=0"`
}

// RoomService defines the room operations
type RoomService interface {
	Create(ctx context.Context, in catalog.RoomInput) (*models.Room, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context) ([]*models.Room, error)
	Update(ctx context.Context, id uuid.UUID, upd catalog.RoomUpdate) (*models.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Seats(ctx context.Context, id uuid.UUID) ([]*models.Seat, error)
}

// RoomHandler handles room HTTP requests
type RoomHandler struct {
	service RoomService
	logger  *zap.Logger
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(service RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/rooms
func (h *RoomHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rooms)
}

// HandleGet handles GET /api/v1/rooms/{id}
func (h *RoomHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	room, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, room)
}

// HandleSeats handles GET /api/v1/rooms/{id}/seats
func (h *RoomHandler) HandleSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	seats, err := h.service.Seats(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, seats)
}

// HandleCreate handles POST /api/v1/rooms
func (h *RoomHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	room, err := h.service.Create(r.Context(), catalog.RoomInput{
		Name: req.Name,
		Rows: req.Rows,
		Cols: req.Cols,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, room)
}

// HandleUpdate handles PUT /api/v1/rooms/{id}
func (h *RoomHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateRoomRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	room, err := h.service.Update(r.Context(), id, catalog.RoomUpdate{
		Name: req.Name,
		Rows: req.Rows,
		Cols: req.Cols,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, room)
}

// HandleDelete handles DELETE /api/v1/rooms/{id}
func (h *RoomHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
