package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionLogin          AuditAction = "login"
	AuditActionLoginFailed    AuditAction = "login_failed"
	AuditActionUserRegistered AuditAction = "user_registered"
	AuditActionMovieCreated   AuditAction = "movie_created"
	AuditActionMovieUpdated   AuditAction = "movie_updated"
	AuditActionMovieDeleted   AuditAction = "movie_deleted"
	AuditActionRoomCreated    AuditAction = "room_created"
	AuditActionRoomUpdated    AuditAction = "room_updated"
	AuditActionRoomDeleted    AuditAction = "room_deleted"
	AuditActionSeatCreated    AuditAction = "seat_created"
	AuditActionSeatUpdated    AuditAction = "seat_updated"
	AuditActionSeatDeleted    AuditAction = "seat_deleted"
	AuditActionCouponCreated  AuditAction = "coupon_created"
	AuditActionCouponDisabled AuditAction = "coupon_deactivated"
	AuditActionOrderCreated   AuditAction = "order_created"
	AuditActionCouponApplied  AuditAction = "coupon_applied"
	AuditActionOrderPaid      AuditAction = "order_paid"
	AuditActionOrderCancelled AuditAction = "order_cancelled"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // movie, room, order, etc.
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now().UTC(),
	}
}

// WithUser sets the user ID
func (a *AuditLog) WithUser(userID uuid.UUID) *AuditLog {
	a.UserID = &userID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
