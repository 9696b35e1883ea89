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

// CreateSeatRequest represents a request to create a seat
type CreateSeatRequest struct {
	RoomID    uuid.UUID `json:"room_id" validate:"required"`
	RowLabel  string    `json:"row_label" validate:"required,max=4,alphanum"`
	ColNumber int       `json:"col_number" validate:"required,gt=0"`
	Label     string    `json:"label,omitempty" validate:"max=16"`
}

// UpdateSeatRequest represents a partial seat update
type UpdateSeatRequest struct {
	RoomID    *uuid.UUID `json:"room_id,omitempty"`
	RowLabel  *string    `json:"row_label,omitempty" validate:"omitempty,min=1,max=4,alphanum"`
	ColNumber *int       `json:"col_number,omitempty" validate:"omitempty,gt=0"`
	Label     *string    `json:"label,omitempty" validate:"omitempty,min=1,max=16"`
}

// SeatService defines the seat operations
type SeatService interface {
	Create(ctx context.Context, in catalog.SeatInput) (*models.Seat, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Seat, error)
	List(ctx context.Context) ([]*models.Seat, error)
	Update(ctx context.Context, id uuid.UUID, upd catalog.SeatUpdate) (*models.Seat, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SeatHandler handles seat HTTP requests
type SeatHandler struct {
	service SeatService
	logger  *zap.Logger
}

// NewSeatHandler creates a new SeatHandler
func NewSeatHandler(service SeatService, logger *zap.Logger) *SeatHandler {
	return &SeatHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/seats
func (h *SeatHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, seats)
}

// HandleGet handles GET /api/v1/seats/{id}
func (h *SeatHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	seat, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, seat)
}

// HandleCreate handles POST /api/v1/seats
func (h *SeatHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSeatRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	seat, err := h.service.Create(r.Context(), catalog.SeatInput{
		RoomID:    req.RoomID,
		RowLabel:  req.RowLabel,
		ColNumber: req.ColNumber,
		Label:     req.Label,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, seat)
}

// HandleUpdate handles PUT /api/v1/seats/{id}
func (h *SeatHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateSeatRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	seat, err := h.service.Update(r.Context(), id, catalog.SeatUpdate{
		RoomID:    req.RoomID,
		RowLabel:  req.RowLabel,
		ColNumber: req.ColNumber,
		Label:     req.Label,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, seat)
}

// HandleDelete handles DELETE /api/v1/seats/{id}
func (h *SeatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
