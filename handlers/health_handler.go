package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// MigrationChecker reports how many schema migrations are still pending
type MigrationChecker interface {
	Pending(ctx context.Context) (int, error)
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db         *sql.DB
	migrations MigrationChecker
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db or migrations
// checker skips that check.
func NewHealthHandler(db *sql.DB, migrations MigrationChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		migrations: migrations,
		logger:     logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: answers 200 while the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// The database must answer and every migration must be applied.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	state, ok := h.checkMigrations(ctx)
	checks["migrations"] = state
	if !ok {
		allHealthy = false
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	var err error
	if allHealthy {
		err = utils.WriteOK(w, response)
	} else {
		response.Status = "unhealthy"
		err = utils.WriteServiceUnavailable(w, response)
	}
	if err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}

// checkMigrations describes the schema state and whether it is ready
func (h *HealthHandler) checkMigrations(ctx context.Context) (string, bool) {
	if h.migrations == nil {
		return "skipped", true
	}

	pending, err := h.migrations.Pending(ctx)
	if err != nil {
		h.logger.Warn("migration health check failed", zap.Error(err))
		return "unhealthy", false
	}
	if pending > 0 {
		return fmt.Sprintf("%d pending", pending), false
	}
	return "up to date", true
}
