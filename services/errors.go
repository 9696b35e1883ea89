package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same type and message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail returns a copy of the error carrying an extra detail, so the
// package-level sentinels are never mutated.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Type: e.Type, Message: e.Message, Err: e.Err, Details: details}
}

// Wrap returns a copy of the error wrapping cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Type: e.Type, Message: e.Message, Err: cause, Details: e.Details}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrUserNotFound     = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrMovieNotFound    = NewDomainError(ErrorTypeNotFound, "movie not found", nil)
	ErrRoomNotFound     = NewDomainError(ErrorTypeNotFound, "room not found", nil)
	ErrSeatNotFound     = NewDomainError(ErrorTypeNotFound, "seat not found", nil)
	ErrCouponNotFound   = NewDomainError(ErrorTypeNotFound, "coupon not found", nil)
	ErrOrderNotFound    = NewDomainError(ErrorTypeNotFound, "order not found", nil)
	ErrAuditLogNotFound = NewDomainError(ErrorTypeNotFound, "audit log not found", nil)

	// Validation Errors
	ErrInvalidInput         = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidRole          = NewDomainError(ErrorTypeValidation, "invalid role", nil)
	ErrSeatOutsideRoom      = NewDomainError(ErrorTypeValidation, "seat does not fit the room dimensions", nil)
	ErrRoomFull             = NewDomainError(ErrorTypeValidation, "room capacity reached", nil)
	ErrRoomShrink           = NewDomainError(ErrorTypeValidation, "room dimensions smaller than existing seats", nil)
	ErrMixedRooms           = NewDomainError(ErrorTypeValidation, "all seats of an order must belong to the same room", nil)
	ErrEmptyOrder           = NewDomainError(ErrorTypeValidation, "order must contain at least one seat", nil)
	ErrDuplicateSeatInOrder = NewDomainError(ErrorTypeValidation, "seat listed more than once", nil)
	ErrCouponInactive       = NewDomainError(ErrorTypeValidation, "coupon is not active", nil)
	ErrCouponExceedsTotal   = NewDomainError(ErrorTypeValidation, "fixed discount is greater than the subtotal", nil)
	ErrCouponPercentRange   = NewDomainError(ErrorTypeValidation, "percent discount must be between 0 and 100", nil)
	ErrOrderNotPending      = NewDomainError(ErrorTypeValidation, "order is not pending", nil)

	// Authorization Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid username or password", nil)

	// Permission Errors
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	// Conflict Errors
	ErrUserExists          = NewDomainError(ErrorTypeConflict, "user already exists", nil)
	ErrRoomNameTaken       = NewDomainError(ErrorTypeConflict, "room name already exists", nil)
	ErrSeatLabelTaken      = NewDomainError(ErrorTypeConflict, "seat label already exists in room", nil)
	ErrCouponCodeTaken     = NewDomainError(ErrorTypeConflict, "coupon code already exists", nil)
	ErrSeatAlreadyReserved = NewDomainError(ErrorTypeConflict, "seat already reserved", nil)
	ErrCouponAlreadyUsed   = NewDomainError(ErrorTypeConflict, "coupon already used by another order", nil)
	ErrSeatInUse           = NewDomainError(ErrorTypeConflict, "seat is referenced by an order", nil)
	ErrRoomInUse           = NewDomainError(ErrorTypeConflict, "room has seats referenced by orders", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)
)

// Error type checking helper functions

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return hasType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// Validation builds a validation error carrying per-field messages.
func Validation(message string, fields map[string]string) *DomainError {
	err := NewDomainError(ErrorTypeValidation, message, nil)
	for k, v := range fields {
		err.Details[k] = v
	}
	return err
}
