package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps payloads as {"data": ...}
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// errorKinds maps a status to the machine-readable "error" field.
// Statuses missing here are reported as internal_error.
var errorKinds = map[int]string{
	http.StatusBadRequest:            "bad_request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not_found",
	http.StatusMethodNotAllowed:      "method_not_allowed",
	http.StatusConflict:              "conflict",
	http.StatusRequestEntityTooLarge: "payload_too_large",
	http.StatusServiceUnavailable:    "service_unavailable",
}

// WriteJSON writes data as JSON with the given status. A nil body writes headers only.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes 200 with data in the envelope
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes 201 with data in the envelope
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteNoContent writes 204 with no body
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteServiceUnavailable writes 503 keeping the success envelope, so
// readiness checks always get the per-check breakdown.
func WriteServiceUnavailable(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusServiceUnavailable, SuccessResponse{Data: data})
}

// WriteError writes an ErrorResponse whose kind is derived from status
func WriteError(w http.ResponseWriter, status int, message string, details map[string]interface{}) error {
	kind, ok := errorKinds[status]
	if !ok {
		kind = "internal_error"
	}
	return WriteJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: message,
		Details: details,
	})
}

func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusBadRequest, message, details)
}

func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteError(w, http.StatusConflict, message, details)
}

func WriteUnauthorized(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusUnauthorized, orDefault(message, "Authentication required"), nil)
}

func WriteForbidden(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusForbidden, orDefault(message, "Access forbidden"), nil)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, orDefault(message, "Resource not found"), nil)
}

func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, orDefault(message, "Internal server error"), nil)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
