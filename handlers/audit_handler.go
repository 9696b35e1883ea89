package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// AuditService defines the audit trail queries
type AuditService interface {
	List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLog, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
}

// AuditHandler exposes the audit trail to administrators
type AuditHandler struct {
	service AuditService
	logger  *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/audit/logs
// Query parameters: user_id, action, since, until (RFC 3339), limit, offset.
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	logs, err := h.service.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, logs)
}

// HandleGet handles GET /api/v1/audit/logs/{id}
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, entry)
}

func parseAuditFilter(r *http.Request) (repositories.AuditFilter, error) {
	q := r.URL.Query()
	var filter repositories.AuditFilter

	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, invalidQuery("user_id", "must be a UUID")
		}
		filter.UserID = &id
	}
	filter.Action = models.AuditAction(q.Get("action"))

	for name, dst := range map[string]**time.Time{"since": &filter.Since, "until": &filter.Until} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, invalidQuery(name, "must be an RFC 3339 timestamp")
		}
		*dst = &t
	}
	return filter, nil
}

func invalidQuery(name, reason string) error {
	return &utils.ValidationError{
		Message: "Invalid query parameters",
		Fields:  map[string]string{name: reason},
	}
}
