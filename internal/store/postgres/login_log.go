package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

type LoginLogRepo struct {
	pool *pgxpool.Pool
}

func NewLoginLogRepo(pool *pgxpool.Pool) *LoginLogRepo {
	return &LoginLogRepo{pool: pool}
}

func (r *LoginLogRepo) Append(ctx context.Context, e *domain.LoginEvent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO login_logs (user_id, company_id, email, status, failure_reason, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.UserID, e.CompanyID, e.Email, e.Status, nilIfEmpty(e.FailureReason),
		nilIfEmpty(e.IPAddress), nilIfEmpty(e.UserAgent), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("loginLogRepo.Append: %w", err)
	}

	return nil
}

func (r *LoginLogRepo) List(ctx context.Context, f domain.LoginFilter) ([]*domain.LoginEvent, int64, error) {
	var c conds
	if f.CompanyID != nil {
		c.add("company_id = " + c.arg(*f.CompanyID))
	}
	if f.Status != "" {
		c.add("status = " + c.arg(f.Status))
	}
	c.search(f.Email, "email")
	if f.From != nil {
		c.add("created_at >= " + c.arg(*f.From))
	}
	if f.To != nil {
		c.add("created_at < " + c.arg(*f.To))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM login_logs`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("loginLogRepo.List: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, company_id, email, status, failure_reason, ip_address, user_agent, created_at
		 FROM login_logs`+c.where()+` ORDER BY created_at DESC, id DESC`+c.page(f.Page),
		c.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("loginLogRepo.List: %w", err)
	}
	defer rows.Close()

	var events []*domain.LoginEvent
	for rows.Next() {
		var e domain.LoginEvent
		var reason, ip, ua *string

		if err := rows.Scan(&e.ID, &e.UserID, &e.CompanyID, &e.Email, &e.Status, &reason, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("loginLogRepo.List: scan: %w", err)
		}
		e.FailureReason = derefStr(reason)
		e.IPAddress = derefStr(ip)
		e.UserAgent = derefStr(ua)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("loginLogRepo.List: rows: %w", err)
	}

	return events, total, nil
}
