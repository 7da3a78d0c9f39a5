package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/domain"
)

// Resolution failures. Each wraps the domain error that decides the HTTP
// status, so callers can match either.
var (
	ErrNoSession        = fmt.Errorf("auth: no session: %w", domain.ErrUnauthorized)
	ErrSessionExpired   = fmt.Errorf("auth: session expired: %w", domain.ErrUnauthorized)
	ErrInvalidPrincipal = fmt.Errorf("auth: session user no longer exists: %w", domain.ErrUnauthorized)
	ErrDeactivated      = fmt.Errorf("auth: account is deactivated: %w", domain.ErrForbidden)
)

// UserLookup loads users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Resolver turns an opaque session token into a Principal.
type Resolver struct {
	sessions domain.SessionStore
	users    UserLookup
}

func NewResolver(sessions domain.SessionStore, users UserLookup) *Resolver {
	return &Resolver{sessions: sessions, users: users}
}

// Resolve looks up the session and re-reads the user on every call. A
// session pointing at a missing or deactivated user is destroyed before the
// error is returned, so the same token fails on every later call as well.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	sess, err := r.sessions.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Resolve: %w", err)
	}

	user, err := r.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		r.invalidate(ctx, token, sess.UserID, "user missing")
		return nil, ErrInvalidPrincipal
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Resolve: %w", err)
	}

	if !user.Active {
		r.invalidate(ctx, token, user.ID, "user deactivated")
		return nil, ErrDeactivated
	}

	return domain.PrincipalFromUser(user), nil
}

func (r *Resolver) invalidate(ctx context.Context, token string, userID int64, reason string) {
	if err := r.sessions.Destroy(context.WithoutCancel(ctx), token); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Str("reason", reason).Msg("auth: failed to destroy session")
		return
	}
	log.Info().Int64("user_id", userID).Str("reason", reason).Msg("auth: session invalidated")
}
