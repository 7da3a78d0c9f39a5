package middleware

import (
	"net"
	"net/http"

	"github.com/gosuda/hrm/internal/audit"
)

// Origin records the client address and user agent for audit and login
// log entries. Chain it after chi's RealIP.
func Origin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := audit.WithOrigin(r.Context(), audit.Origin{IP: ip, UserAgent: r.UserAgent()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
