// Package coupons manages discount coupons.
package coupons

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// generated codes collide rarely; give up after this many attempts
const maxCodeAttempts = 3

var (
	hundred   = decimal.NewFromInt(100)
	codeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)
)

// CouponInput carries the fields of a new coupon. An empty Code is generated.
// Value is money off for FIXED coupons and a percentage for PERCENT coupons.
type CouponInput struct {
	Code  string
	Type  models.CouponType
	Value decimal.Decimal
}

// CouponService creates and retires coupons
type CouponService struct {
	coupons  repositories.CouponRepository
	currency string
	auditor  audit.Recorder
	logger   *zap.Logger
}

// NewCouponService creates a new CouponService instance
func NewCouponService(coupons repositories.CouponRepository, currency string, auditor audit.Recorder, logger *zap.Logger) *CouponService {
	if auditor == nil {
		auditor = audit.Nop
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &CouponService{coupons: coupons, currency: currency, auditor: auditor, logger: logger}
}

// Create adds an active coupon
func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if err := s.validate(code, in); err != nil {
		return nil, err
	}

	value := models.NewMoney(in.Value, s.currency)
	generated := code == ""

	var coupon *models.Coupon
	for attempt := 1; ; attempt++ {
		if generated {
			code = GenerateCode(DefaultCodeLength)
		}
		coupon = models.NewCoupon(code, in.Type, value)

		err := s.coupons.Create(ctx, coupon)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		if !generated || attempt >= maxCodeAttempts {
			return nil, services.ErrCouponCodeTaken.WithDetail("code", code)
		}
		s.logger.Debug("generated coupon code collided, retrying", zap.String("code", code))
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionCouponCreated,
		ResourceType: "coupon",
		ResourceID:   &coupon.ID,
		Details:      map[string]string{"code": coupon.Code, "type": string(coupon.Type), "value": in.Value.String()},
	})
	s.logger.Info("coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

func (s *CouponService) validate(code string, in CouponInput) error {
	fields := map[string]string{}
	if code != "" && !codeRegex.MatchString(code) {
		fields["code"] = "code must be 3-32 letters, digits, '-' or '_'"
	}
	switch in.Type {
	case models.CouponFixed:
		if !in.Value.IsPositive() {
			fields["value"] = "fixed discount must be positive"
		}
	case models.CouponPercent:
		if !in.Value.IsPositive() || in.Value.GreaterThan(hundred) {
			return services.ErrCouponPercentRange.WithDetail("value", in.Value.String())
		}
	default:
		fields["type"] = "type must be FIXED or PERCENT"
	}
	if len(fields) > 0 {
		return services.Validation("invalid coupon", fields)
	}
	return nil
}

// List returns every coupon
func (s *CouponService) List(ctx context.Context) ([]*models.Coupon, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return coupons, nil
}

// GetByCode finds a coupon by its code, case-insensitively
func (s *CouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.coupons.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrCouponNotFound.WithDetail("code", strings.ToUpper(strings.TrimSpace(code)))
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return coupon, nil
}

// Deactivate stops a coupon from being applied to further orders
func (s *CouponService) Deactivate(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if err := s.coupons.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrCouponNotFound.WithDetail("id", id.String())
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	coupon, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionCouponDisabled,
		ResourceType: "coupon",
		ResourceID:   &id,
	})
	return coupon, nil
}
