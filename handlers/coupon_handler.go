package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/services/coupons"
	"github.com/joaobarbosa/cinema-api/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateCouponRequest represents a request to create a coupon. An omitted
// code is generated.
type CreateCouponRequest struct {
	Code  string          `json:"code,omitempty" validate:"omitempty,min=3,max=32"`
	Type  string          `json:"type" validate:"required,oneof=FIXED PERCENT fixed percent"`
	Value decimal.Decimal `json:"value"`
}

// CouponService defines the coupon administration operations
type CouponService interface {
	Create(ctx context.Context, in coupons.CouponInput) (*models.Coupon, error)
	List(ctx context.Context) ([]*models.Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

// CouponHandler handles coupon HTTP requests
type CouponHandler struct {
	service CouponService
	logger  *zap.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(service CouponService, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/coupons
func (h *CouponHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleCreate handles POST /api/v1/coupons
func (h *CouponHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	coupon, err := h.service.Create(r.Context(), coupons.CouponInput{
		Code:  req.Code,
		Type:  models.CouponType(strings.ToUpper(req.Type)),
		Value: req.Value,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, coupon)
}

// HandleDeactivate handles POST /api/v1/coupons/{id}/deactivate
func (h *CouponHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	coupon, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, coupon)
}
