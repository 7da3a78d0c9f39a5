package domain

import (
	"context"
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	CompanyID    *int64     `json:"company_id"` // nil only for SUPER_ADMIN
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // argon2id, never recoverable
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	FailedLogins int        `json:"-"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Locked reports whether the account is inside a lockout window at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type UserFilter struct {
	CompanyID *int64
	Role      Role
	Search    string
	Page      Page
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update writes profile, role, company and active flag.
	Update(ctx context.Context, u *User) error
	// UpdatePassword stores a new hash and returns the bumped version.
	UpdatePassword(ctx context.Context, id int64, hash string) (int64, error)
	// RecordLoginFailure bumps the failure counter and, once lockAfter
	// failures accumulate, locks the account for lockFor. It returns the
	// resulting lock deadline, nil when the account is not locked.
	RecordLoginFailure(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) (*time.Time, error)
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f UserFilter) ([]*User, int64, error)
}

// Session maps an opaque token to a user for a bounded time.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps login sessions. Get returns ErrNotFound for unknown or
// expired tokens.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
}
