package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

// StatsRepo runs the read-only dashboard aggregates. Every query takes the
// company filter as $1; NULL means all companies.
type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

const (
	scopeEmployees = `($1::bigint IS NULL OR e.company_id = $1)`
	scopeAudit     = `($1::bigint IS NULL OR company_id = $1)`

	topBuckets = 10
)

func (r *StatsRepo) Overview(ctx context.Context, companyID *int64, now time.Time) (*domain.Overview, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -5, 0)

	var o domain.Overview

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM companies WHERE active AND ($1::bigint IS NULL OR id = $1)`,
		companyID,
	).Scan(&o.TotalCompanies)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: companies: %w", err)
	}

	if companyID != nil {
		err = r.pool.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, *companyID).Scan(&o.CompanyName)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("statsRepo.Overview: company name: %w", err)
		}
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE e.status = 'ACTIVE'),
		        COALESCE(sum(e.gross_salary) FILTER (WHERE e.status = 'ACTIVE'), 0),
		        count(*) FILTER (WHERE e.status = 'ACTIVE' AND e.date_of_joining >= $2),
		        count(*) FILTER (WHERE e.status = 'ON_LEAVE'),
		        count(*) FILTER (WHERE e.status = 'TERMINATED')
		 FROM employees e WHERE `+scopeEmployees,
		companyID, monthStart,
	).Scan(&o.TotalEmployees, &o.TotalSalary, &o.NewJoiningsThisMonth, &o.EmployeesOnLeave, &o.TerminatedEmployees)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: employees: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FROM employee_documents d JOIN employees e ON e.id = d.employee_id
		 WHERE NOT d.verified AND `+scopeEmployees,
		companyID,
	).Scan(&o.PendingVerifications)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: pending documents: %w", err)
	}

	if companyID == nil {
		rows, err := r.pool.Query(ctx,
			`SELECT c.id, c.name, c.code, count(e.id), COALESCE(sum(e.gross_salary), 0)
			 FROM companies c
			 LEFT JOIN employees e ON e.company_id = c.id AND e.status = 'ACTIVE'
			 WHERE c.active
			 GROUP BY c.id
			 ORDER BY 4 DESC, c.id`,
		)
		if err != nil {
			return nil, fmt.Errorf("statsRepo.Overview: company distribution: %w", err)
		}
		o.CompanyDistribution, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CompanyHeadcount, error) {
			var c domain.CompanyHeadcount
			err := row.Scan(&c.CompanyID, &c.Name, &c.Code, &c.Employees, &c.TotalSalary)
			return c, err
		})
		if err != nil {
			return nil, fmt.Errorf("statsRepo.Overview: company distribution: %w", err)
		}
	}

	o.MonthlyJoinings, err = r.counts(ctx,
		`SELECT to_char(date_trunc('month', e.date_of_joining), 'YYYY-MM'), count(*)
		 FROM employees e
		 WHERE e.date_of_joining >= $2 AND `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 1`,
		companyID, trendStart,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: monthly joinings: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT e.department, count(*), COALESCE(sum(e.gross_salary), 0)
		 FROM employees e
		 WHERE e.status = 'ACTIVE' AND e.department <> '' AND `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 2 DESC, 1 LIMIT $2`,
		companyID, topBuckets,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: departments: %w", err)
	}
	o.Departments, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DepartmentHeadcount, error) {
		var d domain.DepartmentHeadcount
		err := row.Scan(&d.Department, &d.Count, &d.TotalSalary)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: departments: %w", err)
	}

	o.Designations, err = r.counts(ctx,
		`SELECT e.designation, count(*)
		 FROM employees e
		 WHERE e.status = 'ACTIVE' AND e.designation <> '' AND `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 2 DESC, 1 LIMIT $2`,
		companyID, topBuckets,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: designations: %w", err)
	}

	o.Genders, err = r.counts(ctx,
		`SELECT COALESCE(NULLIF(e.gender, ''), 'UNSPECIFIED'), count(*)
		 FROM employees e
		 WHERE e.status = 'ACTIVE' AND `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 2 DESC, 1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Overview: genders: %w", err)
	}

	return &o, nil
}

func (r *StatsRepo) SalaryAnalytics(ctx context.Context, companyID *int64) (*domain.SalaryAnalytics, error) {
	var s domain.SalaryAnalytics

	err := r.pool.QueryRow(ctx,
		`SELECT count(*),
		        COALESCE(round(avg(e.gross_salary), 2), 0),
		        COALESCE(min(e.gross_salary), 0),
		        COALESCE(max(e.gross_salary), 0),
		        COALESCE(sum(e.gross_salary), 0)
		 FROM employees e
		 WHERE e.status = 'ACTIVE' AND `+scopeEmployees,
		companyID,
	).Scan(&s.TotalEmployees, &s.Average, &s.Min, &s.Max, &s.Total)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.SalaryAnalytics: %w", err)
	}

	s.Ranges, err = r.counts(ctx,
		`SELECT band, count(*) FROM (
		     SELECT CASE
		                WHEN e.gross_salary < 30000 THEN '<30K'
		                WHEN e.gross_salary < 50000 THEN '30K-50K'
		                WHEN e.gross_salary < 75000 THEN '50K-75K'
		                WHEN e.gross_salary < 100000 THEN '75K-100K'
		                ELSE '>100K'
		            END AS band,
		            e.gross_salary
		     FROM employees e
		     WHERE e.status = 'ACTIVE' AND `+scopeEmployees+`
		 ) b
		 GROUP BY band ORDER BY min(gross_salary)`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.SalaryAnalytics: ranges: %w", err)
	}

	return &s, nil
}

func (r *StatsRepo) DocumentStats(ctx context.Context, companyID *int64) (*domain.DocumentStats, error) {
	var s domain.DocumentStats

	err := r.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE d.verified),
		        count(*) FILTER (WHERE NOT d.verified),
		        count(DISTINCT d.employee_id)
		 FROM employee_documents d JOIN employees e ON e.id = d.employee_id
		 WHERE `+scopeEmployees,
		companyID,
	).Scan(&s.Total, &s.Verified, &s.Pending, &s.EmployeesWithDocuments)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.DocumentStats: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT d.document_type, count(*), count(*) FILTER (WHERE d.verified)
		 FROM employee_documents d JOIN employees e ON e.id = d.employee_id
		 WHERE `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 2 DESC, 1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.DocumentStats: types: %w", err)
	}
	s.Types, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DocumentTypeCount, error) {
		var t domain.DocumentTypeCount
		err := row.Scan(&t.Type, &t.Count, &t.Verified)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.DocumentStats: types: %w", err)
	}

	return &s, nil
}

func (r *StatsRepo) EmployeeStatus(ctx context.Context, companyID *int64) ([]domain.Count, error) {
	counts, err := r.counts(ctx,
		`SELECT e.status, count(*) FROM employees e WHERE `+scopeEmployees+` GROUP BY 1 ORDER BY 1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.EmployeeStatus: %w", err)
	}
	return counts, nil
}

func (r *StatsRepo) YearlyJoinings(ctx context.Context, companyID *int64, years int) ([]domain.YearlyJoining, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT extract(year FROM e.date_of_joining)::int, count(*), COALESCE(round(avg(e.gross_salary), 2), 0)
		 FROM employees e
		 WHERE `+scopeEmployees+`
		 GROUP BY 1 ORDER BY 1 DESC LIMIT $2`,
		companyID, years,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.YearlyJoinings: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.YearlyJoining, error) {
		var y domain.YearlyJoining
		err := row.Scan(&y.Year, &y.Count, &y.AvgSalary)
		return y, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.YearlyJoinings: %w", err)
	}
	return out, nil
}

// Leaves flattens every employee's leave records, newest first.
func (r *StatsRepo) Leaves(ctx context.Context, companyID *int64) ([]domain.LeaveEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.code, e.first_name, e.last_name, e.department, e.company_id, c.name, lr
		 FROM employees e
		 JOIN companies c ON c.id = e.company_id
		 CROSS JOIN LATERAL jsonb_array_elements(e.leave_records) AS lr
		 WHERE `+scopeEmployees,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Leaves: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LeaveEntry, error) {
		var l domain.LeaveEntry
		var raw []byte
		if err := row.Scan(&l.EmployeeID, &l.EmployeeCode, &l.FirstName, &l.LastName, &l.Department,
			&l.CompanyID, &l.CompanyName, &raw); err != nil {
			return l, err
		}
		if err := json.Unmarshal(raw, &l.LeaveRecord); err != nil {
			return l, fmt.Errorf("unmarshal leave record: %w", err)
		}
		return l, nil
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.Leaves: %w", err)
	}

	slices.SortStableFunc(out, func(a, b domain.LeaveEntry) int {
		return b.From.Compare(a.From)
	})
	return out, nil
}

func (r *StatsRepo) NewJoinings(ctx context.Context, companyID *int64, since time.Time) ([]domain.NewJoining, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.code, e.first_name, e.last_name, e.department, e.designation, e.date_of_joining,
		        e.company_id, c.name
		 FROM employees e
		 JOIN companies c ON c.id = e.company_id
		 WHERE e.date_of_joining >= $2 AND `+scopeEmployees+`
		 ORDER BY e.date_of_joining DESC, e.id DESC`,
		companyID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.NewJoinings: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.NewJoining, error) {
		var j domain.NewJoining
		err := row.Scan(&j.EmployeeID, &j.EmployeeCode, &j.FirstName, &j.LastName, &j.Department, &j.Designation,
			&j.DateOfJoining, &j.CompanyID, &j.CompanyName)
		return j, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.NewJoinings: %w", err)
	}
	return out, nil
}

func (r *StatsRepo) AuditSummary(ctx context.Context, companyID *int64, since time.Time) (*domain.AuditSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT action, entity_type, count(*), count(DISTINCT actor_id), max(created_at)
		 FROM audit_log
		 WHERE created_at >= $2 AND `+scopeAudit+`
		 GROUP BY action, entity_type
		 ORDER BY 3 DESC, 1, 2`,
		companyID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.AuditSummary: %w", err)
	}

	var s domain.AuditSummary
	s.Actions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ActionSummary, error) {
		var a domain.ActionSummary
		err := row.Scan(&a.Action, &a.EntityType, &a.Count, &a.UniqueActors, &a.LastOccurrence)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.AuditSummary: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT actor_id, COALESCE(max(actor_name), ''), count(*)
		 FROM audit_log
		 WHERE actor_id IS NOT NULL AND created_at >= $2 AND `+scopeAudit+`
		 GROUP BY actor_id
		 ORDER BY 3 DESC, 1 LIMIT $3`,
		companyID, since, topBuckets,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.AuditSummary: actors: %w", err)
	}
	s.MostActive, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ActorActivity, error) {
		var a domain.ActorActivity
		err := row.Scan(&a.ActorID, &a.ActorName, &a.Count)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.AuditSummary: actors: %w", err)
	}

	return &s, nil
}

func (r *StatsRepo) ActivityTimeline(ctx context.Context, companyID *int64, since time.Time) ([]domain.TimelinePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), action, count(*)
		 FROM audit_log
		 WHERE created_at >= $2 AND `+scopeAudit+`
		 GROUP BY 1, 2 ORDER BY 1, 2`,
		companyID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("statsRepo.ActivityTimeline: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TimelinePoint, error) {
		var p domain.TimelinePoint
		err := row.Scan(&p.Date, &p.Action, &p.Count)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("statsRepo.ActivityTimeline: %w", err)
	}
	return out, nil
}

// counts collects (label, count) rows.
func (r *StatsRepo) counts(ctx context.Context, sql string, args ...any) ([]domain.Count, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Count, error) {
		var c domain.Count
		err := row.Scan(&c.Label, &c.Count)
		return c, err
	})
}
