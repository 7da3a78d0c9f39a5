package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/domain"
)

// Sentinel errors for login.
var (
	ErrInvalidCredentials = fmt.Errorf("auth: invalid credentials: %w", domain.ErrUnauthorized)
	ErrAccountLocked      = errors.New("auth: account temporarily locked")
)

// Credentials is the subset of user storage the login flow needs.
type Credentials interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) (int64, error)
	RecordLoginFailure(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) (*time.Time, error)
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
}

// LoginLog stores login attempts.
type LoginLog interface {
	Append(ctx context.Context, e *domain.LoginEvent) error
}

// AuditSink receives post-commit audit entries.
type AuditSink interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// Lockout configures account locking after repeated failures.
type Lockout struct {
	MaxAttempts int
	Duration    time.Duration
}

// Service provides login, logout and password changes.
type Service struct {
	users    Credentials
	sessions domain.SessionStore
	logins   LoginLog
	audit    AuditSink
	lockout  Lockout
	now      func() time.Time
}

// NewService creates a new auth service.
func NewService(users Credentials, sessions domain.SessionStore, logins LoginLog, sink AuditSink, lockout Lockout) *Service {
	if lockout.MaxAttempts <= 0 {
		lockout.MaxAttempts = 5
	}
	if lockout.Duration <= 0 {
		lockout.Duration = 15 * time.Minute
	}
	return &Service{
		users:    users,
		sessions: sessions,
		logins:   logins,
		audit:    sink,
		lockout:  lockout,
		now:      time.Now,
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	Session *domain.Session
	User    *domain.User
}

// Login validates email/password and opens a session. Every attempt is
// appended to the login log.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := s.now()

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logAttempt(ctx, nil, email, domain.LoginFailed, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if user.Locked(now) {
		s.logAttempt(ctx, user, email, domain.LoginLocked, "account locked")
		return nil, fmt.Errorf("auth.Login: until %s: %w", user.LockedUntil.UTC().Format(time.RFC3339), ErrAccountLocked)
	}

	if !user.Active {
		s.logAttempt(ctx, user, email, domain.LoginFailed, "account deactivated")
		return nil, ErrDeactivated
	}

	if !VerifyPassword(password, user.PasswordHash) {
		lockedUntil, lerr := s.users.RecordLoginFailure(ctx, user.ID, s.lockout.MaxAttempts, s.lockout.Duration)
		if lerr != nil {
			return nil, fmt.Errorf("auth.Login: record failure: %w", lerr)
		}
		if lockedUntil != nil {
			s.logAttempt(ctx, user, email, domain.LoginLocked, "too many failed attempts")
			return nil, fmt.Errorf("auth.Login: %w", ErrAccountLocked)
		}
		s.logAttempt(ctx, user, email, domain.LoginFailed, "invalid password")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: create session: %w", err)
	}

	s.logAttempt(ctx, user, email, domain.LoginSuccess, "")
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     &user.ID,
		ActorName:   user.Name,
		CompanyID:   user.CompanyID,
		Action:      domain.ActionLogin,
		EntityType:  domain.EntityAuth,
		EntityID:    &user.ID,
		Description: "User logged in",
	})

	user.LastLogin = &now
	user.FailedLogins = 0
	user.LockedUntil = nil

	return &LoginResult{Session: sess, User: user}, nil
}

// Logout destroys the session behind token.
func (s *Service) Logout(ctx context.Context, p *domain.Principal, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("auth.Logout: %w", err)
	}
	if p != nil {
		s.audit.Record(ctx, domain.AuditEntry{
			ActorID:     &p.UserID,
			ActorName:   p.Name,
			CompanyID:   p.CompanyID,
			Action:      domain.ActionLogout,
			EntityType:  domain.EntityAuth,
			EntityID:    &p.UserID,
			Description: "User logged out",
		})
	}
	return nil
}

// ChangePassword replaces the caller's own password after checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, p *domain.Principal, current, next string) error {
	if err := Authorize(p, AnyRole); err != nil {
		return err
	}

	verr := &domain.ValidationError{}
	if current == "" {
		verr.Add("current_password", "is required")
	}
	if len(next) < MinPasswordLen {
		verr.Add("new_password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("auth.ChangePassword: %w", err)
	}
	if !VerifyPassword(current, user.PasswordHash) {
		return domain.NewValidationError("current_password", "is incorrect")
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("auth.ChangePassword: %w", err)
	}
	version, err := s.users.UpdatePassword(ctx, user.ID, hash)
	if err != nil {
		return fmt.Errorf("auth.ChangePassword: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:       &p.UserID,
		ActorName:     p.Name,
		CompanyID:     p.CompanyID,
		Action:        domain.ActionUpdate,
		EntityType:    domain.EntityUser,
		EntityID:      &p.UserID,
		EntityVersion: version,
		Description:   "Password changed",
	})
	return nil
}

func (s *Service) logAttempt(ctx context.Context, u *domain.User, email string, status domain.LoginStatus, reason string) {
	origin := audit.OriginFromContext(ctx)
	ev := &domain.LoginEvent{
		Email:         email,
		Status:        status,
		FailureReason: reason,
		IPAddress:     origin.IP,
		UserAgent:     origin.UserAgent,
		CreatedAt:     s.now().UTC(),
	}
	if u != nil {
		ev.UserID = &u.ID
		ev.CompanyID = u.CompanyID
	}
	if err := s.logins.Append(context.WithoutCancel(ctx), ev); err != nil {
		log.Error().Err(err).Str("email", email).Str("status", string(status)).Msg("auth: failed to write login log")
	}
}
