package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

type CompanyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

const companyColumns = `id, name, code, address, phone, email, active, version, created_at, updated_at`

func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO companies (name, code, address, phone, email, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, version, created_at, updated_at`,
		c.Name, c.Code, nilIfEmpty(c.Address), nilIfEmpty(c.Phone), nilIfEmpty(c.Email), c.Active,
	).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("companyRepo.Create: %w", mapPostgresError(err))
	}

	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("companyRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("companyRepo.GetByID: %w", err)
	}

	return c, nil
}

func (r *CompanyRepo) Update(ctx context.Context, c *domain.Company) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE companies SET name = $1, code = $2, address = $3, phone = $4, email = $5, active = $6,
		     version = version + 1, updated_at = now()
		 WHERE id = $7
		 RETURNING version, updated_at`,
		c.Name, c.Code, nilIfEmpty(c.Address), nilIfEmpty(c.Phone), nilIfEmpty(c.Email), c.Active, c.ID,
	).Scan(&c.Version, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("companyRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("companyRepo.Update: %w", mapPostgresError(err))
	}

	return nil
}

func (r *CompanyRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("companyRepo.Delete: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("companyRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CompanyRepo) List(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error) {
	var c conds
	if f.OnlyID != nil {
		c.add("id = " + c.arg(*f.OnlyID))
	}
	c.search(f.Search, "name", "code", "email")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM companies`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("companyRepo.List: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies`+c.where()+` ORDER BY name, id`+c.page(f.Page),
		c.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("companyRepo.List: %w", err)
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		co, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("companyRepo.List: scan: %w", err)
		}
		companies = append(companies, co)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("companyRepo.List: rows: %w", err)
	}

	return companies, total, nil
}

func (r *CompanyRepo) CountEmployees(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM employees WHERE company_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("companyRepo.CountEmployees: %w", err)
	}
	return n, nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	var address, phone, email *string

	if err := row.Scan(&c.ID, &c.Name, &c.Code, &address, &phone, &email, &c.Active, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Address = derefStr(address)
	c.Phone = derefStr(phone)
	c.Email = derefStr(email)

	return &c, nil
}
