package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const couponColumns = `id, code, type, value_amount, value_currency, is_active, created_at, updated_at`

// CouponRepository implements the repositories.CouponRepository interface
type CouponRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *DB, logger *zap.Logger) repositories.CouponRepository {
	return &CouponRepository{db: db, logger: logger}
}

// Create creates a new coupon; ErrDuplicate when the code is taken
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, type, value_amount, value_currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Type,
		coupon.Value.Amount(),
		coupon.Value.Currency(),
		coupon.Active,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		return mapError("failed to create coupon", err)
	}

	r.logger.Debug("coupon created", zap.String("id", coupon.ID.String()), zap.String("code", coupon.Code))
	return nil
}

// GetByID retrieves a coupon by ID
func (r *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := scanCoupon(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get coupon %s", id), err)
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by code, case-insensitively
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, strings.ToUpper(code)))
	if err != nil {
		return nil, mapError("get coupon by code", err)
	}
	return coupon, nil
}

// List retrieves all coupons, newest first
func (r *CouponRepository) List(ctx context.Context) ([]*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*models.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupon rows: %w", err)
	}
	return coupons, nil
}

// SetActive toggles the active flag
func (r *CouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE coupons SET is_active = $2, updated_at = now() WHERE id = $1`

	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, active)
	if err != nil {
		return mapError("failed to update coupon", err)
	}
	return expectAffected("update coupon", res)
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var (
		c        models.Coupon
		amount   decimal.Decimal
		currency string
	)
	err := row.Scan(&c.ID, &c.Code, &c.Type, &amount, &currency, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Value = models.NewMoney(amount, currency)
	return &c, nil
}
