package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/gosuda/hrm/internal/domain"
)

// Resolver turns a session token into a principal. *auth.Resolver
// satisfies this interface.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

// Cookie describes the session cookie.
type Cookie struct {
	Name   string
	Secure bool
}

// Clear returns a cookie that deletes the session cookie in the browser.
func (c Cookie) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Issue returns the cookie carrying token.
func (c Cookie) Issue(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Session resolves the session cookie or bearer token into a principal.
// Requests without a token pass through anonymously. A token that no longer
// resolves is answered with 401 (or 403 for a deactivated account) and the
// cookie is cleared.
func Session(resolver Resolver, cookie Cookie) func(http.Handler) http.Handler {
	return session(resolver, cookie, false)
}

// OptionalSession is Session for endpoints open to anonymous callers such as
// login: a stale token clears the cookie and the request continues
// anonymously.
func OptionalSession(resolver Resolver, cookie Cookie) func(http.Handler) http.Handler {
	return session(resolver, cookie, true)
}

func session(resolver Resolver, cookie Cookie, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookie.Name)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Resolve(r.Context(), token)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p, token)))
			case optional && (errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthorized)):
				http.SetCookie(w, cookie.Clear())
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrForbidden):
				http.SetCookie(w, cookie.Clear())
				writeProblem(w, http.StatusForbidden, "account is deactivated")
			case errors.Is(err, domain.ErrUnauthorized):
				http.SetCookie(w, cookie.Clear())
				writeProblem(w, http.StatusUnauthorized, "session expired")
			default:
				hlog.FromRequest(r).Error().Err(err).Msg("session: resolve failed")
				writeProblem(w, http.StatusInternalServerError, "internal server error")
			}
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				writeProblem(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if tok := extractBearer(r); tok != "" {
		return tok
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
