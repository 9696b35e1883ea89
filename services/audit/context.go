package audit

import (
	"context"

	"github.com/google/uuid"
)

type metaKey struct{}

// RequestMeta is the HTTP request information stamped on audit entries
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
	UserID    *uuid.UUID // authenticated caller, if any
}

// WithRequestMeta attaches request metadata to ctx
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata attached to ctx
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(metaKey{}).(RequestMeta)
	return meta, ok
}

