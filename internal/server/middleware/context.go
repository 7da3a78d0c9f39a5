package middleware

import (
	"context"

	"github.com/gosuda/hrm/internal/domain"
)

type contextKey string

const (
	contextKeyPrincipal contextKey = "principal"
	contextKeyToken     contextKey = "session_token"
)

// WithPrincipal stores the authenticated principal and the session token it
// was resolved from.
func WithPrincipal(ctx context.Context, p *domain.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, contextKeyPrincipal, p)
	return context.WithValue(ctx, contextKeyToken, token)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*domain.Principal)
	return p
}

func SessionTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyToken).(string)
	return v
}
