package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"go.uber.org/zap"
)

const (
	auditColumns = `id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, request_id, timestamp`

	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	log, err := scanAuditLog(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get audit log %s", id), err)
	}
	return log, nil
}

// List retrieves audit logs matching filter, newest first
func (r *AuditRepository) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLog, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.Since != nil {
		add("timestamp >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("timestamp <= $%d", *filter.Until)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}
	return logs, nil
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	var (
		log                             models.AuditLog
		userID, resourceID              uuid.NullUUID
		details                         []byte
		ipAddress, userAgent, requestID *string
	)
	err := row.Scan(
		&log.ID,
		&userID,
		&log.Action,
		&log.ResourceType,
		&resourceID,
		&details,
		&ipAddress,
		&userAgent,
		&requestID,
		&log.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		log.UserID = &userID.UUID
	}
	if resourceID.Valid {
		log.ResourceID = &resourceID.UUID
	}
	if len(details) > 0 {
		log.Details = details
	}
	log.IPAddress = deref(ipAddress)
	log.UserAgent = deref(userAgent)
	log.RequestID = deref(requestID)
	return &log, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
