// Package observability builds the zap logger used across the service and
// propagates the chi request ID into log fields.
package observability
