package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, company_id, email, password_hash, name, phone, role, active,
	failed_logins, locked_until, last_login, version, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (company_id, email, password_hash, name, phone, role, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, version, created_at, updated_at`,
		u.CompanyID, u.Email, u.PasswordHash, u.Name, nilIfEmpty(u.Phone), u.Role, u.Active,
	).Scan(&u.ID, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", mapPostgresError(err))
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}

	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}

	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET company_id = $1, email = $2, name = $3, phone = $4, role = $5, active = $6,
		     version = version + 1, updated_at = now()
		 WHERE id = $7
		 RETURNING version, updated_at`,
		u.CompanyID, u.Email, u.Name, nilIfEmpty(u.Phone), u.Role, u.Active, u.ID,
	).Scan(&u.Version, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("userRepo.Update: %w", mapPostgresError(err))
	}

	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET password_hash = $1, failed_logins = 0, locked_until = NULL,
		     version = version + 1, updated_at = now()
		 WHERE id = $2
		 RETURNING version`,
		hash, id,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("userRepo.UpdatePassword: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("userRepo.UpdatePassword: %w", err)
	}

	return version, nil
}

// RecordLoginFailure counts a failed attempt. Reaching lockAfter resets the
// counter and sets the lock deadline, so an expired lock starts a fresh
// window.
func (r *UserRepo) RecordLoginFailure(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) (*time.Time, error) {
	deadline := time.Now().UTC().Add(lockFor)

	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET
		     failed_logins = CASE WHEN failed_logins + 1 >= $2 THEN 0 ELSE failed_logins + 1 END,
		     locked_until  = CASE WHEN failed_logins + 1 >= $2 THEN $3::timestamptz ELSE NULL END
		 WHERE id = $1
		 RETURNING locked_until`,
		id, lockAfter, deadline,
	).Scan(&lockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.RecordLoginFailure: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.RecordLoginFailure: %w", err)
	}

	return lockedUntil, nil
}

func (r *UserRepo) RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_logins = 0, locked_until = NULL, last_login = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("userRepo.RecordLoginSuccess: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.RecordLoginSuccess: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("userRepo.Delete: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, int64, error) {
	var c conds
	if f.CompanyID != nil {
		c.add("company_id = " + c.arg(*f.CompanyID))
	}
	if f.Role != "" {
		c.add("role = " + c.arg(f.Role))
	}
	c.search(f.Search, "name", "email")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users`+c.where()+` ORDER BY created_at DESC, id DESC`+c.page(f.Page),
		c.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("userRepo.List: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: rows: %w", err)
	}

	return users, total, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var phone *string

	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.Name, &phone, &u.Role, &u.Active,
		&u.FailedLogins, &u.LockedUntil, &u.LastLogin, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.Phone = derefStr(phone)

	return &u, nil
}
