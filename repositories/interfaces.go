package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when a row cannot be removed because another row points at it.
	ErrReferenced = errors.New("record is referenced")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes fn within a transaction carried on the context.
	// Commits if fn succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// UserRepository is the credential store
type UserRepository interface {
	// Create inserts a user; ErrDuplicate when the username is taken
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List returns users ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// MovieRepository handles movie data operations
type MovieRepository interface {
	Create(ctx context.Context, movie *models.Movie) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Movie, error)
	List(ctx context.Context) ([]*models.Movie, error)
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoomRepository handles room data operations
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)

	// LockByID loads the room with a row lock held until the surrounding
	// transaction ends; seat placement and resizing serialize on it
	LockByID(ctx context.Context, id uuid.UUID) (*models.Room, error)

	List(ctx context.Context) ([]*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SeatStats summarizes the seats of one room
type SeatStats struct {
	Count  int
	MaxCol int
	Rows   int // distinct row labels
}

// RowUsage describes the distinct rows of a room, ignoring one seat
type RowUsage struct {
	Rows  int  // distinct row labels in use
	InUse bool // the requested row label is one of them
}

// SeatRepository handles seat data operations
type SeatRepository interface {
	Create(ctx context.Context, seat *models.Seat) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Seat, error)
	List(ctx context.Context) ([]*models.Seat, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*models.Seat, error)
	StatsByRoom(ctx context.Context, roomID uuid.UUID) (SeatStats, error)

	// RowUsage reports the rows of roomID in use by seats other than exclude
	RowUsage(ctx context.Context, roomID uuid.UUID, rowLabel string, exclude uuid.UUID) (RowUsage, error)

	// LockByIDs loads the given seats with row locks held until the surrounding transaction ends
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Seat, error)

	Update(ctx context.Context, seat *models.Seat) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponRepository handles coupon data operations
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]*models.Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// OrderRepository handles orders and their items
type OrderRepository interface {
	// Create inserts the order and all of its items
	Create(ctx context.Context, order *models.Order) error

	// GetByID loads the order with items and coupon
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// LockByID is GetByID holding a row lock on the order until the
	// surrounding transaction ends
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// ListByUser loads a user's orders, newest first, with items and coupon
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)

	// UpdateStatus moves the order from one status to another; ErrNotFound
	// when the order is not in status from
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error

	// SetCoupon attaches a coupon to a pending order; ErrDuplicate when another
	// order already holds it, ErrNotFound when the order is no longer pending
	SetCoupon(ctx context.Context, id, couponID uuid.UUID) error

	// ReservedSeatIDs returns which of seatIDs belong to a non-cancelled order
	ReservedSeatIDs(ctx context.Context, seatIDs []uuid.UUID) ([]uuid.UUID, error)
}

// AuditFilter narrows audit log listings
type AuditFilter struct {
	UserID *uuid.UUID
	Action models.AuditAction
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Movies    MovieRepository
	Rooms     RoomRepository
	Seats     SeatRepository
	Coupons   CouponRepository
	Orders    OrderRepository
	AuditLogs AuditRepository
}
