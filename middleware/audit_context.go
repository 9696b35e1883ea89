package middleware

import (
	"net"
	"net/http"

	"github.com/joaobarbosa/cinema-api/services/audit"
)

// AuditContext stamps the request metadata audit entries are recorded with.
// It must run after Authenticate to see the caller.
func AuditContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := audit.RequestMeta{
			RequestID: GetRequestIDFromContext(r.Context()),
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		}
		if p := GetPrincipalFromContext(r.Context()); p != nil {
			id := p.UserID
			meta.UserID = &id
		}
		next.ServeHTTP(w, r.WithContext(audit.WithRequestMeta(r.Context(), meta)))
	})
}

// clientIP strips the port from a RemoteAddr; chi's RealIP may already have
// replaced it with a bare address.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
