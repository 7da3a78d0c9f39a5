package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gosuda/hrm/internal/domain"
)

type EmployeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

const employeeColumns = `id, company_id, code, first_name, last_name, email, phone, date_of_birth, gender, address,
	department, designation, employment_type, date_of_joining, gross_salary, bank_name, bank_ifsc,
	national_id_enc, bank_account_enc, status,
	last_day_of_work, termination_reason, final_settlement, termination_details, terminated_at,
	leave_records, salary_increments, version, created_by, created_at, updated_at`

// Create reserves the next sequence number for (company, year) and inserts
// the employee in the same transaction, so codes are never reused.
func (r *EmployeeRepo) Create(ctx context.Context, e *domain.Employee, codePrefix string) error {
	now := e.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	leave, incs, err := marshalHistory(e)
	if err != nil {
		return fmt.Errorf("employeeRepo.Create: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var seq int
		err := tx.QueryRow(ctx,
			`INSERT INTO employee_sequences (company_id, year, last_seq) VALUES ($1, $2, 1)
			 ON CONFLICT (company_id, year) DO UPDATE SET last_seq = employee_sequences.last_seq + 1
			 RETURNING last_seq`,
			e.CompanyID, now.Year(),
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("next sequence: %w", mapPostgresError(err))
		}

		e.Code = domain.FormatEmployeeCode(codePrefix, now.Year(), seq)
		e.Version = 1

		return tx.QueryRow(ctx,
			`INSERT INTO employees (company_id, code, first_name, last_name, email, phone, date_of_birth, gender, address,
			     department, designation, employment_type, date_of_joining, gross_salary, bank_name, bank_ifsc,
			     national_id_enc, bank_account_enc, status, leave_records, salary_increments, version, created_by,
			     created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $24)
			 RETURNING id, created_at, updated_at`,
			e.CompanyID, e.Code, e.FirstName, e.LastName, nilIfEmpty(e.Email), nilIfEmpty(e.Phone), e.DateOfBirth,
			nilIfEmpty(e.Gender), nilIfEmpty(e.Address), e.Department, e.Designation, e.EmploymentType, e.DateOfJoining,
			e.GrossSalary, nilIfEmpty(e.BankName), nilIfEmpty(e.BankIFSC), nilIfEmpty(e.NationalIDEnc),
			nilIfEmpty(e.BankAccountEnc), e.Status, leave, incs, e.Version, e.CreatedBy, now,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("employeeRepo.Create: %w", mapPostgresError(err))
	}

	return nil
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("employeeRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("employeeRepo.GetByID: %w", err)
	}

	return e, nil
}

// Update is a compare-and-swap on version. The bumped version is written
// back to e so the caller can stamp its audit entry with it.
func (r *EmployeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	leave, incs, err := marshalHistory(e)
	if err != nil {
		return fmt.Errorf("employeeRepo.Update: %w", err)
	}

	var (
		lastDay    *time.Time
		reason     *string
		settlement decimal.NullDecimal
		details    *string
		recordedAt *time.Time
	)
	if t := e.Termination; t != nil {
		lastDay = &t.LastDayOfWork
		reason = &t.Reason
		settlement = decimal.NewNullDecimal(t.FinalSettlement)
		details = nilIfEmpty(t.Details)
		recordedAt = &t.RecordedAt
	}

	err = r.pool.QueryRow(ctx,
		`UPDATE employees SET
		     first_name = $1, last_name = $2, email = $3, phone = $4, date_of_birth = $5, gender = $6, address = $7,
		     department = $8, designation = $9, employment_type = $10, date_of_joining = $11, gross_salary = $12,
		     bank_name = $13, bank_ifsc = $14, national_id_enc = $15, bank_account_enc = $16, status = $17,
		     last_day_of_work = $18, termination_reason = $19, final_settlement = $20, termination_details = $21,
		     terminated_at = $22, leave_records = $23, salary_increments = $24,
		     version = version + 1, updated_at = now()
		 WHERE id = $25 AND version = $26
		 RETURNING version, updated_at`,
		e.FirstName, e.LastName, nilIfEmpty(e.Email), nilIfEmpty(e.Phone), e.DateOfBirth, nilIfEmpty(e.Gender),
		nilIfEmpty(e.Address), e.Department, e.Designation, e.EmploymentType, e.DateOfJoining, e.GrossSalary,
		nilIfEmpty(e.BankName), nilIfEmpty(e.BankIFSC), nilIfEmpty(e.NationalIDEnc), nilIfEmpty(e.BankAccountEnc),
		e.Status, lastDay, reason, settlement, details, recordedAt, leave, incs,
		e.ID, e.Version,
	).Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if qerr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, e.ID).Scan(&exists); qerr != nil {
			return fmt.Errorf("employeeRepo.Update: %w", qerr)
		}
		if !exists {
			return fmt.Errorf("employeeRepo.Update: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("employeeRepo.Update: stale version %d: %w", e.Version, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("employeeRepo.Update: %w", mapPostgresError(err))
	}

	return nil
}

func (r *EmployeeRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("employeeRepo.Delete: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employeeRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *EmployeeRepo) List(ctx context.Context, f domain.EmployeeFilter) ([]*domain.Employee, int64, error) {
	var c conds
	if f.CompanyID != nil {
		c.add("company_id = " + c.arg(*f.CompanyID))
	}
	if f.Department != "" {
		c.add("department = " + c.arg(f.Department))
	}
	if f.Designation != "" {
		c.add("designation = " + c.arg(f.Designation))
	}
	if f.Status != "" {
		c.add("status = " + c.arg(f.Status))
	}
	c.search(f.Search, "first_name", "last_name", "code", "email", "phone")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM employees`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("employeeRepo.List: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees`+c.where()+` ORDER BY created_at DESC, id DESC`+c.page(f.Page),
		c.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("employeeRepo.List: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("employeeRepo.List: scan: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("employeeRepo.List: rows: %w", err)
	}

	return employees, total, nil
}

func (r *EmployeeRepo) Departments(ctx context.Context, companyID *int64) ([]string, error) {
	return r.distinct(ctx, "department", companyID)
}

func (r *EmployeeRepo) Designations(ctx context.Context, companyID *int64) ([]string, error) {
	return r.distinct(ctx, "designation", companyID)
}

func (r *EmployeeRepo) distinct(ctx context.Context, col string, companyID *int64) ([]string, error) {
	caller := "employeeRepo." + col + "s"

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT `+col+` FROM employees
		 WHERE `+col+` <> '' AND ($1::bigint IS NULL OR company_id = $1)
		 ORDER BY 1`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}

	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return values, nil
}

func marshalHistory(e *domain.Employee) ([]byte, []byte, error) {
	leave := e.LeaveRecords
	if leave == nil {
		leave = []domain.LeaveRecord{}
	}
	incs := e.SalaryIncrements
	if incs == nil {
		incs = []domain.SalaryIncrement{}
	}

	lb, err := json.Marshal(leave)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal leave records: %w", err)
	}
	ib, err := json.Marshal(incs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal salary increments: %w", err)
	}
	return lb, ib, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	var (
		email, phone, gender, address, bankName, bankIFSC *string
		nationalID, bankAccount                           *string
		lastDay, terminatedAt                             *time.Time
		reason, details                                   *string
		settlement                                        decimal.NullDecimal
		leave, incs                                       []byte
	)

	err := row.Scan(
		&e.ID, &e.CompanyID, &e.Code, &e.FirstName, &e.LastName, &email, &phone, &e.DateOfBirth, &gender, &address,
		&e.Department, &e.Designation, &e.EmploymentType, &e.DateOfJoining, &e.GrossSalary, &bankName, &bankIFSC,
		&nationalID, &bankAccount, &e.Status,
		&lastDay, &reason, &settlement, &details, &terminatedAt,
		&leave, &incs, &e.Version, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Email = derefStr(email)
	e.Phone = derefStr(phone)
	e.Gender = derefStr(gender)
	e.Address = derefStr(address)
	e.BankName = derefStr(bankName)
	e.BankIFSC = derefStr(bankIFSC)
	e.NationalIDEnc = derefStr(nationalID)
	e.BankAccountEnc = derefStr(bankAccount)

	if reason != nil && lastDay != nil {
		t := &domain.Termination{
			LastDayOfWork:   *lastDay,
			Reason:          *reason,
			FinalSettlement: settlement.Decimal,
			Details:         derefStr(details),
		}
		if terminatedAt != nil {
			t.RecordedAt = *terminatedAt
		}
		e.Termination = t
	}

	if len(leave) > 0 {
		if err := json.Unmarshal(leave, &e.LeaveRecords); err != nil {
			return nil, fmt.Errorf("unmarshal leave records: %w", err)
		}
	}
	if len(incs) > 0 {
		if err := json.Unmarshal(incs, &e.SalaryIncrements); err != nil {
			return nil, fmt.Errorf("unmarshal salary increments: %w", err)
		}
	}

	return &e, nil
}
