package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponType selects how a coupon's value is interpreted
type CouponType string

const (
	CouponFixed   CouponType = "FIXED"
	CouponPercent CouponType = "PERCENT"
)

// Valid reports whether t is a known coupon type
func (t CouponType) Valid() bool {
	return t == CouponFixed || t == CouponPercent
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

var (
	ErrCouponInactive        = errors.New("coupon is not active")
	ErrOrderClosed           = errors.New("order is paid or cancelled")
	ErrCouponExceedsSubtotal = errors.New("fixed coupon value is greater than the subtotal")
	ErrCouponPercentTooHigh  = errors.New("percent coupon value is greater than 100")
	ErrUnknownCouponType     = errors.New("unknown coupon type")
)

// Coupon grants a discount. For FIXED coupons Value is money off; for PERCENT
// coupons Value.Amount() is the percentage.
type Coupon struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Type      CouponType `json:"type" db:"type"`
	Value     Money      `json:"value" db:"value"`
	Active    bool       `json:"active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NewCoupon creates an active coupon
func NewCoupon(code string, couponType CouponType, value Money) *Coupon {
	now := time.Now().UTC()
	return &Coupon{
		ID:        uuid.New(),
		Code:      strings.ToUpper(code),
		Type:      couponType,
		Value:     value,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OrderItem is one seat in an order.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	SeatID    uuid.UUID `json:"seat_id" db:"seat_id"`
	SeatLabel string    `json:"seat_label" db:"seat_label"`
	HalfPrice bool      `json:"half_price" db:"is_kind_half"`
	UnitPrice Money     `json:"unit_price" db:"unit_price"`
}

var half = decimal.NewFromFloat(0.5)

// FinalPrice is the unit price, halved for half-price tickets.
func (i *OrderItem) FinalPrice() Money {
	if i.HalfPrice {
		return i.UnitPrice.Times(half)
	}
	return i.UnitPrice
}

// Order groups seat reservations for a user.
type Order struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Status    OrderStatus  `json:"status" db:"status"`
	Currency  string       `json:"currency" db:"currency"`
	Coupon    *Coupon      `json:"coupon,omitempty" db:"-"`
	Items     []*OrderItem `json:"items" db:"-"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// NewOrder creates a pending order with no items
func NewOrder(userID uuid.UUID, currency string) *Order {
	if currency == "" {
		currency = DefaultCurrency
	}
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    OrderPending,
		Currency:  currency,
		Items:     []*OrderItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem attaches item to the order.
func (o *Order) AddItem(item *OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
}

// RemoveItem detaches the item with the given ID. Unknown IDs are ignored.
func (o *Order) RemoveItem(id uuid.UUID) {
	for i, item := range o.Items {
		if item.ID == id {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			item.OrderID = uuid.Nil
			return
		}
	}
}

// Subtotal sums the final price of every item.
func (o *Order) Subtotal() (Money, error) {
	total := ZeroMoney(o.Currency)
	for _, item := range o.Items {
		var err error
		if total, err = total.Plus(item.FinalPrice()); err != nil {
			return Money{}, fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	return total, nil
}

// DiscountTotal is the amount taken off by the applied coupon.
func (o *Order) DiscountTotal() (Money, error) {
	if o.Coupon == nil {
		return ZeroMoney(o.Currency), nil
	}
	switch o.Coupon.Type {
	case CouponFixed:
		return o.Coupon.Value, nil
	case CouponPercent:
		subtotal, err := o.Subtotal()
		if err != nil {
			return Money{}, err
		}
		return subtotal.PercentageOf(o.Coupon.Value.OfficialAmount())
	}
	return ZeroMoney(o.Currency), nil
}

// Total is the subtotal minus the discount.
func (o *Order) Total() (Money, error) {
	subtotal, err := o.Subtotal()
	if err != nil {
		return Money{}, err
	}
	discount, err := o.DiscountTotal()
	if err != nil {
		return Money{}, err
	}
	return subtotal.Minus(discount)
}

// ApplyCoupon validates coupon against the order and attaches it.
func (o *Order) ApplyCoupon(c *Coupon) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if o.Status == OrderCancelled || o.Status == OrderPaid {
		return ErrOrderClosed
	}
	switch c.Type {
	case CouponFixed:
		subtotal, err := o.Subtotal()
		if err != nil {
			return err
		}
		rest, err := subtotal.Minus(c.Value)
		if err != nil {
			return err
		}
		if rest.IsNegative() {
			return ErrCouponExceedsSubtotal
		}
	case CouponPercent:
		if c.Value.Amount().GreaterThan(decimal.NewFromInt(100)) {
			return ErrCouponPercentTooHigh
		}
	default:
		return ErrUnknownCouponType
	}
	o.Coupon = c
	return nil
}

// CouponCode returns the applied coupon's code, if any.
func (o *Order) CouponCode() (string, bool) {
	if o.Coupon == nil {
		return "", false
	}
	return o.Coupon.Code, true
}

// Payable reports whether the order can still be paid.
func (o *Order) Payable() bool {
	return o.Status == OrderPending
}

// MarkPaid moves a pending order to PAID.
func (o *Order) MarkPaid() error {
	if !o.Payable() {
		return ErrOrderClosed
	}
	o.Status = OrderPaid
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves a pending order to CANCELLED.
func (o *Order) Cancel() error {
	if !o.Payable() {
		return ErrOrderClosed
	}
	o.Status = OrderCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}
