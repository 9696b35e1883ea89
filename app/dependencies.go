package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joaobarbosa/cinema-api/auth"
	"github.com/joaobarbosa/cinema-api/config"
	"github.com/joaobarbosa/cinema-api/handlers"
	"github.com/joaobarbosa/cinema-api/middleware"
	"github.com/joaobarbosa/cinema-api/migrations"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/repositories/postgres"
	"github.com/joaobarbosa/cinema-api/services/audit"
	authsvc "github.com/joaobarbosa/cinema-api/services/auth"
	"github.com/joaobarbosa/cinema-api/services/catalog"
	"github.com/joaobarbosa/cinema-api/services/coupons"
	"github.com/joaobarbosa/cinema-api/services/orders"
	"go.uber.org/zap"
)

// auditStopTimeout bounds how long Close waits for queued audit entries
const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB
	Logger   *zap.Logger
	Migrator *migrations.Migrator

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Auth
	Tokens         *auth.TokenService
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	Audit   *audit.AuditService
	Auth    *authsvc.AuthService
	Movies  *catalog.MovieService
	Rooms   *catalog.RoomService
	Seats   *catalog.SeatService
	Coupons *coupons.CouponService
	Orders  *orders.OrderService

	// Handlers
	HealthHandler *handlers.HealthHandler
	AuthHandler   *handlers.AuthHandler
	MovieHandler  *handlers.MovieHandler
	RoomHandler   *handlers.RoomHandler
	SeatHandler   *handlers.SeatHandler
	CouponHandler *handlers.CouponHandler
	OrderHandler  *handlers.OrderHandler
	AuditHandler  *handlers.AuditHandler
}

// NewDependencies opens the database and wires every component on top of it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesFromFactory(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires every component on an already opened
// repository factory.
func NewDependenciesFromFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.Migrator = migrations.New(deps.DB.DB, logger)
	deps.initRepositories()
	deps.initAuth()

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth() {
	d.Tokens = auth.NewTokenServiceFromConfig(d.Config.JWT)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Repos.Users, d.Logger)
}

func (d *Dependencies) initServices() error {
	d.Audit = audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:  d.Config.Audit.BufferSize,
		WorkerCount: d.Config.Audit.Workers,
	})
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("start audit service: %w", err)
	}

	ticketPrice := models.NewMoney(d.Config.Pricing.TicketPrice, d.Config.Pricing.Currency)

	d.Auth = authsvc.NewAuthService(d.Repos.Users, d.Tokens, d.Audit, d.Logger)
	d.Movies = catalog.NewMovieService(d.Repos.Movies, d.Audit, d.Logger)
	d.Rooms = catalog.NewRoomService(d.Repos.Rooms, d.Repos.Seats, d.TxManager, d.Audit, d.Logger)
	d.Seats = catalog.NewSeatService(d.Repos.Seats, d.Repos.Rooms, d.TxManager, d.Audit, d.Logger)
	d.Coupons = coupons.NewCouponService(d.Repos.Coupons, d.Config.Pricing.Currency, d.Audit, d.Logger)
	d.Orders = orders.NewOrderService(d.Repos.Orders, d.Repos.Seats, d.Repos.Coupons, d.TxManager, ticketPrice, d.Audit, d.Logger)

	d.Logger.Info("services initialized",
		zap.String("ticket_price", ticketPrice.String()),
		zap.Int("audit_workers", d.Config.Audit.Workers))
	return nil
}

func (d *Dependencies) initHandlers() {
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Migrator, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.Auth, d.Logger)
	d.MovieHandler = handlers.NewMovieHandler(d.Movies, d.Logger)
	d.RoomHandler = handlers.NewRoomHandler(d.Rooms, d.Logger)
	d.SeatHandler = handlers.NewSeatHandler(d.Seats, d.Logger)
	d.CouponHandler = handlers.NewCouponHandler(d.Coupons, d.Logger)
	d.OrderHandler = handlers.NewOrderHandler(d.Orders, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.Audit, d.Logger)
}

// Close gracefully shuts down all dependencies. Queued audit entries are
// flushed before the database closes.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil && !errors.Is(err, audit.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
