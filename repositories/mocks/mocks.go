// Package mocks holds testify mocks of the repository interfaces for service
// and handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/stretchr/testify/mock"
)

// Tx is a no-op transaction handed to InTransaction callbacks.
type Tx struct {
	ctx context.Context
}

func (t *Tx) Commit() error            { return nil }
func (t *Tx) Rollback() error          { return nil }
func (t *Tx) Context() context.Context { return t.ctx }

// TxManager runs callbacks inline and records what happened to them.
type TxManager struct {
	BeginErr  error
	CommitErr error
	Commits   int
	Rollbacks int
}

func (m *TxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return &Tx{ctx: ctx}, nil
}

func (m *TxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		m.Rollbacks++
		return err
	}
	if m.CommitErr != nil {
		m.Rollbacks++
		return m.CommitErr
	}
	m.Commits++
	return nil
}

// UserRepository mocks repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MovieRepository mocks repositories.MovieRepository
type MovieRepository struct {
	mock.Mock
}

func (m *MovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	return m.Called(ctx, movie).Error(0)
}

func (m *MovieRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Movie), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MovieRepository) List(ctx context.Context) ([]*models.Movie, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Movie), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MovieRepository) Update(ctx context.Context, movie *models.Movie) error {
	return m.Called(ctx, movie).Error(0)
}

func (m *MovieRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// RoomRepository mocks repositories.RoomRepository
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) List(ctx context.Context) ([]*models.Room, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// SeatRepository mocks repositories.SeatRepository
type SeatRepository struct {
	mock.Mock
}

func (m *SeatRepository) Create(ctx context.Context, seat *models.Seat) error {
	return m.Called(ctx, seat).Error(0)
}

func (m *SeatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seat, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SeatRepository) List(ctx context.Context) ([]*models.Seat, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SeatRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Seat, error) {
	args := m.Called(ctx, roomID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SeatRepository) StatsByRoom(ctx context.Context, roomID uuid.UUID) (repositories.SeatStats, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(repositories.SeatStats), args.Error(1)
}

func (m *SeatRepository) RowUsage(ctx context.Context, roomID uuid.UUID, rowLabel string, exclude uuid.UUID) (repositories.RowUsage, error) {
	args := m.Called(ctx, roomID, rowLabel, exclude)
	return args.Get(0).(repositories.RowUsage), args.Error(1)
}

func (m *SeatRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Seat, error) {
	args := m.Called(ctx, ids)
	if v := args.Get(0); v != nil {
		return v.([]*models.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SeatRepository) Update(ctx context.Context, seat *models.Seat) error {
	return m.Called(ctx, seat).Error(0)
}

func (m *SeatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// CouponRepository mocks repositories.CouponRepository
type CouponRepository struct {
	mock.Mock
}

func (m *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return m.Called(ctx, coupon).Error(0)
}

func (m *CouponRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if v := args.Get(0); v != nil {
		return v.(*models.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CouponRepository) List(ctx context.Context) ([]*models.Coupon, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

// OrderRepository mocks repositories.OrderRepository
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *OrderRepository) SetCoupon(ctx context.Context, id, couponID uuid.UUID) error {
	return m.Called(ctx, id, couponID).Error(0)
}

func (m *OrderRepository) ReservedSeatIDs(ctx context.Context, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, seatIDs)
	if v := args.Get(0); v != nil {
		return v.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

// AuditRepository mocks repositories.AuditRepository
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditRepository) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ repositories.TransactionManager = (*TxManager)(nil)
	_ repositories.UserRepository     = (*UserRepository)(nil)
	_ repositories.MovieRepository    = (*MovieRepository)(nil)
	_ repositories.RoomRepository     = (*RoomRepository)(nil)
	_ repositories.SeatRepository     = (*SeatRepository)(nil)
	_ repositories.CouponRepository   = (*CouponRepository)(nil)
	_ repositories.OrderRepository    = (*OrderRepository)(nil)
	_ repositories.AuditRepository    = (*AuditRepository)(nil)
)
