package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderSelect = `
	SELECT o.id, o.user_id, o.status, o.currency, o.created_at, o.updated_at,
	       c.id, c.code, c.type, c.value_amount, c.value_currency, c.is_active, c.created_at, c.updated_at
	FROM orders o
	LEFT JOIN coupons c ON c.id = o.coupon_id
`

const orderItemColumns = `id, order_id, seat_id, seat_label, is_kind_half, unit_price_amount, unit_price_currency`

// OrderRepository implements the repositories.OrderRepository interface
type OrderRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB, logger *zap.Logger) repositories.OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Create inserts the order row followed by one row per item. Callers run it
// inside a transaction so a failed item leaves no partial order behind.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	executor := GetExecutor(ctx, r.db)

	var couponID *uuid.UUID
	if order.Coupon != nil {
		couponID = &order.Coupon.ID
	}

	_, err := executor.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, currency, coupon_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		order.ID,
		order.UserID,
		order.Status,
		order.Currency,
		couponID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return mapError("failed to create order", err)
	}

	itemQuery := `
		INSERT INTO order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, item := range order.Items {
		_, err := executor.ExecContext(ctx, itemQuery,
			item.ID,
			order.ID,
			item.SeatID,
			item.SeatLabel,
			item.HalfPrice,
			item.UnitPrice.Amount(),
			item.UnitPrice.Currency(),
		)
		if err != nil {
			return mapError("failed to create order item", err)
		}
	}

	r.logger.Debug("order created",
		zap.String("id", order.ID.String()),
		zap.Int("items", len(order.Items)),
	)
	return nil
}

// GetByID loads an order with its coupon and items
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(GetExecutor(ctx, r.db).QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get order %s", id), err)
	}

	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// LockByID loads an order and locks its row. Only the orders row is locked;
// the coupon sits on the nullable side of the join.
func (r *OrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(GetExecutor(ctx, r.db).QueryRowContext(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("lock order %s", id), err)
	}

	if err := r.loadItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser loads a user's orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx,
		orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the order status only while it still holds from
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`, id, to, from)
	if err != nil {
		return mapError("failed to update order status", err)
	}
	return expectAffected("update order status", res)
}

// SetCoupon attaches a coupon to the order while it is pending
func (r *OrderRepository) SetCoupon(ctx context.Context, id, couponID uuid.UUID) error {
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET coupon_id = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, couponID, models.OrderPending)
	if err != nil {
		return mapError("failed to set order coupon", err)
	}
	return expectAffected("set order coupon", res)
}

// ReservedSeatIDs returns the subset of seatIDs held by a pending or paid order
func (r *OrderRepository) ReservedSeatIDs(ctx context.Context, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	query := `
		SELECT DISTINCT oi.seat_id
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> 'CANCELLED' AND oi.seat_id = ANY($1::uuid[])
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, pq.Array(uuidStrings(seatIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to query reserved seats: %w", err)
	}
	defer rows.Close()

	reserved := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reserved seat: %w", err)
		}
		reserved = append(reserved, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reserved seat rows: %w", err)
	}
	return reserved, nil
}

// loadItems fills Items for every order with a single query
func (r *OrderRepository) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY seat_label`
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item     models.OrderItem
			amount   decimal.Decimal
			currency string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.SeatID, &item.SeatLabel, &item.HalfPrice, &amount, &currency); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item.UnitPrice = models.NewMoney(amount, currency)
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, &item)
		}
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o              models.Order
		couponID       uuid.NullUUID
		couponCode     sql.NullString
		couponType     sql.NullString
		couponAmount   decimal.NullDecimal
		couponCurrency sql.NullString
		couponActive   sql.NullBool
		couponCreated  sql.NullTime
		couponUpdated  sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
		&couponID, &couponCode, &couponType, &couponAmount, &couponCurrency,
		&couponActive, &couponCreated, &couponUpdated,
	)
	if err != nil {
		return nil, err
	}

	o.Items = []*models.OrderItem{}
	if couponID.Valid {
		o.Coupon = &models.Coupon{
			ID:        couponID.UUID,
			Code:      couponCode.String,
			Type:      models.CouponType(couponType.String),
			Value:     models.NewMoney(couponAmount.Decimal, couponCurrency.String),
			Active:    couponActive.Bool,
			CreatedAt: couponCreated.Time,
			UpdatedAt: couponUpdated.Time,
		}
	}
	return &o, nil
}
