package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/services"
	"github.com/joaobarbosa/cinema-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors are
// logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}
	message := errorMessage(err)

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse{
			Error:   "not_found",
			Message: message,
			Details: details,
		})

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// errorMessage returns the client-facing message of a domain error
func errorMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// HandleDecodeError answers a request whose JSON body could not be decoded
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	logger.Debug("failed to decode request body", zap.Error(err))

	var writeErr error
	if errors.Is(err, utils.ErrBodyTooLarge) {
		writeErr = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
	} else {
		writeErr = utils.WriteBadRequest(w, "Invalid request body", nil)
	}
	if writeErr != nil {
		logger.Error("failed to write decode error response", zap.Error(writeErr))
	}
}

// decodeAndValidate decodes the JSON body into dst and validates it, writing
// the error response itself when either step fails.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		HandleDecodeError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a UUID
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	parsed, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleValidationError(w, err, logger)
		return parsed, false
	}
	return parsed, true
}
