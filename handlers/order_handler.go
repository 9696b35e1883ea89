package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/middleware"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/services/orders"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// OrderItemRequest selects one seat of a new order
type OrderItemRequest struct {
	SeatID    uuid.UUID `json:"seat_id" validate:"required"`
	HalfPrice bool      `json:"half_price"`
}

// CreateOrderRequest represents a request to reserve seats
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ApplyCouponRequest represents a request to attach a coupon to an order
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

// OrderService defines the ticket order operations
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, items []orders.ItemInput) (*models.Order, error)
	Get(ctx context.Context, req orders.Requester, id uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	ApplyCoupon(ctx context.Context, req orders.Requester, id uuid.UUID, code string) (*models.Order, error)
	Pay(ctx context.Context, req orders.Requester, id uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, req orders.Requester, id uuid.UUID) (*models.Order, error)
}

// OrderHandler handles order HTTP requests. Every route requires an
// authenticated caller.
type OrderHandler struct {
	service OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

// HandleCreate handles POST /api/v1/orders
func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	items := make([]orders.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = orders.ItemInput{SeatID: item.SeatID, HalfPrice: item.HalfPrice}
	}

	order, err := h.service.Create(r.Context(), caller.UserID, items)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.writeSummary(w, http.StatusCreated, order)
}

// HandleList handles GET /api/v1/orders, returning the caller's orders
func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requester(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListForUser(r.Context(), caller.UserID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	summaries := make([]*orders.Summary, 0, len(list))
	for _, order := range list {
		summary, err := orders.Summarize(order)
		if err != nil {
			HandleServiceError(w, err, h.logger)
			return
		}
		summaries = append(summaries, summary)
	}
	_ = utils.WriteOK(w, summaries)
}

// HandleGet handles GET /api/v1/orders/{id}
func (h *OrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Get)
}

// HandleApplyCoupon handles POST /api/v1/orders/{id}/coupon
func (h *OrderHandler) HandleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	var req ApplyCouponRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.ApplyCoupon(r.Context(), caller, id, req.Code)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.writeSummary(w, http.StatusOK, order)
}

// HandlePay handles POST /api/v1/orders/{id}/pay
func (h *OrderHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Pay)
}

// HandleCancel handles POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Cancel)
}

// act runs a bodiless operation on the order named by the path
func (h *OrderHandler) act(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, orders.Requester, uuid.UUID) (*models.Order, error),
) {
	caller, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := op(r.Context(), caller, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.writeSummary(w, http.StatusOK, order)
}

func (h *OrderHandler) requester(w http.ResponseWriter, r *http.Request) (orders.Requester, bool) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return orders.Requester{}, false
	}
	return orders.Requester{UserID: principal.UserID, Admin: principal.IsAdmin()}, true
}

func (h *OrderHandler) writeSummary(w http.ResponseWriter, status int, order *models.Order) {
	summary, err := orders.Summarize(order)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteJSON(w, status, utils.SuccessResponse{Data: summary}); err != nil {
		h.logger.Error("failed to write order response", zap.Error(err))
	}
}
