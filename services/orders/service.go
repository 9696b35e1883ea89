// Package orders places ticket orders and moves them through their lifecycle.
package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/services/audit"
	"go.uber.org/zap"
)

// ItemInput selects one seat of a new order
type ItemInput struct {
	SeatID    uuid.UUID
	HalfPrice bool
}

// Requester is the authenticated caller acting on an order
type Requester struct {
	UserID uuid.UUID
	Admin  bool
}

// OrderService handles ticket orders
type OrderService struct {
	orders      repositories.OrderRepository
	seats       repositories.SeatRepository
	coupons     repositories.CouponRepository
	txMgr       repositories.TransactionManager
	ticketPrice models.Money
	auditor     audit.Recorder
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService instance. Every seat is sold at
// ticketPrice.
func NewOrderService(
	orders repositories.OrderRepository,
	seats repositories.SeatRepository,
	coupons repositories.CouponRepository,
	txMgr repositories.TransactionManager,
	ticketPrice models.Money,
	auditor audit.Recorder,
	logger *zap.Logger,
) *OrderService {
	if auditor == nil {
		auditor = audit.Nop
	}
	return &OrderService{
		orders:      orders,
		seats:       seats,
		coupons:     coupons,
		txMgr:       txMgr,
		ticketPrice: ticketPrice,
		auditor:     auditor,
		logger:      logger,
	}
}

// Create places a pending order for the given seats. The seats are locked for
// the duration of the transaction so competing orders serialize on them.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, services.ErrEmptyOrder
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if seen[item.SeatID] {
			return nil, services.ErrDuplicateSeatInOrder.WithDetail("seat_id", item.SeatID.String())
		}
		seen[item.SeatID] = true
		ids = append(ids, item.SeatID)
	}

	order, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Order, error) {
		seats, err := s.seats.LockByIDs(ctx, ids)
		if err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}

		byID := make(map[uuid.UUID]*models.Seat, len(seats))
		for _, seat := range seats {
			byID[seat.ID] = seat
		}
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return nil, services.ErrSeatNotFound.WithDetail("id", id.String())
			}
		}

		roomID := seats[0].RoomID
		for _, seat := range seats[1:] {
			if seat.RoomID != roomID {
				return nil, services.ErrMixedRooms
			}
		}

		reserved, err := s.orders.ReservedSeatIDs(ctx, ids)
		if err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		if len(reserved) > 0 {
			labels := make([]string, 0, len(reserved))
			for _, id := range reserved {
				labels = append(labels, byID[id].Label)
			}
			return nil, services.ErrSeatAlreadyReserved.WithDetail("seats", strings.Join(labels, ","))
		}

		order := models.NewOrder(userID, s.ticketPrice.Currency())
		for _, item := range items {
			order.AddItem(&models.OrderItem{
				ID:        uuid.New(),
				SeatID:    item.SeatID,
				SeatLabel: byID[item.SeatID].Label,
				HalfPrice: item.HalfPrice,
				UnitPrice: s.ticketPrice,
			})
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionOrderCreated,
		ResourceType: "order",
		ResourceID:   &order.ID,
		UserID:       &userID,
		Details:      map[string]int{"seats": len(order.Items)},
	})
	s.logger.Info("order created",
		zap.String("id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("seats", len(order.Items)))
	return order, nil
}

// Get returns an order visible to the requester
func (s *OrderService) Get(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != req.UserID && !req.Admin {
		return nil, services.ErrForbidden
	}
	return order, nil
}

// ListForUser returns the user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return orders, nil
}

// ApplyCoupon attaches the coupon with the given code to a pending order.
// A coupon can be held by a single order.
func (s *OrderService) ApplyCoupon(ctx context.Context, req Requester, id uuid.UUID, code string) (*models.Order, error) {
	order, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Order, error) {
		order, err := s.owned(ctx, req, id)
		if err != nil {
			return nil, err
		}

		code = strings.ToUpper(strings.TrimSpace(code))
		coupon, err := s.coupons.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrCouponNotFound.WithDetail("code", code)
			}
			return nil, services.ErrDatabaseError.Wrap(err)
		}

		if err := order.ApplyCoupon(coupon); err != nil {
			return nil, couponError(err)
		}

		if err := s.orders.SetCoupon(ctx, order.ID, coupon.ID); err != nil {
			switch {
			case errors.Is(err, repositories.ErrDuplicate):
				return nil, services.ErrCouponAlreadyUsed.WithDetail("code", coupon.Code)
			case errors.Is(err, repositories.ErrNotFound):
				return nil, services.ErrOrderNotPending.WithDetail("id", id.String())
			}
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       models.AuditActionCouponApplied,
		ResourceType: "order",
		ResourceID:   &order.ID,
		UserID:       &req.UserID,
		Details:      map[string]string{"code": order.Coupon.Code},
	})
	return order, nil
}

// Pay marks a pending order as paid
func (s *OrderService) Pay(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, req, id, (*models.Order).MarkPaid, models.AuditActionOrderPaid)
}

// Cancel cancels a pending order, releasing its seats
func (s *OrderService) Cancel(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, req, id, (*models.Order).Cancel, models.AuditActionOrderCancelled)
}

func (s *OrderService) transition(
	ctx context.Context,
	req Requester,
	id uuid.UUID,
	apply func(*models.Order) error,
	action models.AuditAction,
) (*models.Order, error) {
	order, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Order, error) {
		order, err := s.owned(ctx, req, id)
		if err != nil {
			return nil, err
		}

		from := order.Status
		if err := apply(order); err != nil {
			return nil, services.ErrOrderNotPending.WithDetail("status", string(order.Status))
		}

		if err := s.orders.UpdateStatus(ctx, order.ID, from, order.Status); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, services.ErrOrderNotPending.WithDetail("id", id.String())
			}
			return nil, services.ErrDatabaseError.Wrap(err)
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:       action,
		ResourceType: "order",
		ResourceID:   &order.ID,
		UserID:       &req.UserID,
	})
	s.logger.Info("order status changed",
		zap.String("id", order.ID.String()),
		zap.String("status", string(order.Status)))
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrderNotFound.WithDetail("id", id.String())
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return order, nil
}

// owned locks an order that only its owner may change. Concurrent changes
// to the same order wait for the lock and then see the committed status.
func (s *OrderService) owned(ctx context.Context, req Requester, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrderNotFound.WithDetail("id", id.String())
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	if order.UserID != req.UserID {
		return nil, services.ErrForbidden
	}
	return order, nil
}

func couponError(err error) error {
	switch {
	case errors.Is(err, models.ErrCouponInactive):
		return services.ErrCouponInactive
	case errors.Is(err, models.ErrOrderClosed):
		return services.ErrOrderNotPending
	case errors.Is(err, models.ErrCouponExceedsSubtotal):
		return services.ErrCouponExceedsTotal
	case errors.Is(err, models.ErrCouponPercentTooHigh):
		return services.ErrCouponPercentRange
	case errors.Is(err, models.ErrUnknownCouponType):
		return services.Validation("unknown coupon type", nil)
	case errors.Is(err, models.ErrCurrencyMismatch):
		return services.Validation("coupon currency does not match the order", nil)
	}
	return services.WrapInternal("failed to apply coupon", err)
}
