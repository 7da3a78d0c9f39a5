package middleware

import (
	"errors"
	"net/http"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

// RequireRole admits only principals whose role is in allowed. It must be
// chained after Session.
//
// Returns 401 when the request is anonymous and 403 when the role does not
// match.
func RequireRole(allowed auth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := auth.Authorize(PrincipalFromContext(r.Context()), allowed)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrUnauthorized):
				writeProblem(w, http.StatusUnauthorized, "authentication required")
			default:
				writeProblem(w, http.StatusForbidden, "insufficient permissions")
			}
		})
	}
}
