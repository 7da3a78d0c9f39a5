package hr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

// EmploymentTypes are the accepted employment types.
//
//nolint:gochecknoglobals // fixed enumeration
var EmploymentTypes = []string{"FULL_TIME", "PART_TIME", "CONTRACT", "INTERN"}

type EmployeeService struct {
	d Deps
}

type EmployeeQuery struct {
	CompanyID   *int64
	Search      string
	Department  string
	Designation string
	Status      domain.EmployeeStatus
	Page        domain.Page
}

func (s *EmployeeService) List(ctx context.Context, p *domain.Principal, q EmployeeQuery) (*Page[*EmployeeView], error) {
	if err := auth.Authorize(p, auth.ViewEmployees); err != nil {
		return nil, err
	}

	f := domain.EmployeeFilter{
		CompanyID:   auth.CompanyFilter(p, q.CompanyID),
		Search:      q.Search,
		Department:  q.Department,
		Designation: q.Designation,
		Status:      q.Status,
		Page:        q.Page,
	}
	items, total, err := s.d.Employees.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("hr.EmployeeService.List: %w", err)
	}

	views := make([]*EmployeeView, len(items))
	for i, e := range items {
		views[i] = newEmployeeView(e, s.d.Codec, p, false)
	}
	return &Page[*EmployeeView]{Items: views, Info: q.Page.Info(total)}, nil
}

// Get returns one employee. reveal is honoured only for roles allowed to
// see decoded sensitive values, and each reveal is audited.
func (s *EmployeeService) Get(ctx context.Context, p *domain.Principal, id int64, reveal bool) (*EmployeeView, error) {
	if err := auth.Authorize(p, auth.ViewEmployees); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	v := newEmployeeView(e, s.d.Codec, p, reveal)
	if v.Revealed {
		ae := entry(p, domain.ActionExport, domain.EntityEmployee, e.ID, &e.CompanyID, "Sensitive fields revealed: "+e.Code)
		ae.EntityVersion = e.Version
		s.d.Recorder.Record(ctx, ae)
	}
	return v, nil
}

func (s *EmployeeService) load(ctx context.Context, p *domain.Principal, id int64) (*domain.Employee, error) {
	e, err := s.d.Employees.GetByID(ctx, id)
	if err != nil {
		return nil, hide(err, "employee")
	}
	if err := auth.EnforceScope(p, &e.CompanyID); err != nil {
		return nil, hide(err, "employee")
	}
	return e, nil
}

type EmployeeInput struct {
	CompanyID      *int64
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	DateOfBirth    *time.Time
	Gender         string
	Address        string
	Department     string
	Designation    string
	EmploymentType string
	DateOfJoining  time.Time
	GrossSalary    decimal.Decimal
	BankName       string
	BankIFSC       string
	NationalID     string
	BankAccount    string
}

func (s *EmployeeService) Create(ctx context.Context, p *domain.Principal, in EmployeeInput) (*EmployeeView, error) {
	if err := auth.Authorize(p, auth.ManageEmployees); err != nil {
		return nil, err
	}

	companyID := in.CompanyID
	if companyID == nil && !auth.IsGlobal(p) {
		companyID = p.CompanyID
	}
	if companyID == nil {
		return nil, domain.NewValidationError("company_id", "is required")
	}
	if err := auth.EnforceScope(p, companyID); err != nil {
		return nil, err
	}
	company, err := s.d.Companies.GetByID(ctx, *companyID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("company_id", "company does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("hr.EmployeeService.Create: %w", err)
	}

	e := &domain.Employee{
		CompanyID:      company.ID,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          normalizeEmail(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		DateOfBirth:    in.DateOfBirth,
		Gender:         strings.TrimSpace(in.Gender),
		Address:        strings.TrimSpace(in.Address),
		Department:     strings.TrimSpace(in.Department),
		Designation:    strings.TrimSpace(in.Designation),
		EmploymentType: strings.ToUpper(strings.TrimSpace(in.EmploymentType)),
		DateOfJoining:  in.DateOfJoining,
		GrossSalary:    in.GrossSalary,
		BankName:       strings.TrimSpace(in.BankName),
		BankIFSC:       strings.ToUpper(strings.TrimSpace(in.BankIFSC)),
		Status:         domain.EmployeeActive,
		CreatedBy:      &p.UserID,
		CreatedAt:      time.Now().UTC(),
	}
	if e.EmploymentType == "" {
		e.EmploymentType = EmploymentTypes[0]
	}
	if err := validateEmployee(e); err != nil {
		return nil, err
	}
	if err := s.encodeSensitive(e, &in.NationalID, &in.BankAccount); err != nil {
		return nil, err
	}

	if err := s.d.Employees.Create(ctx, e, company.EmployeeCodePrefix()); err != nil {
		return nil, fmt.Errorf("hr.EmployeeService.Create: %w", err)
	}

	v := newEmployeeView(e, s.d.Codec, p, false)
	ae := entry(p, domain.ActionCreate, domain.EntityEmployee, e.ID, &e.CompanyID, "Employee created: "+e.Code)
	ae.EntityVersion = e.Version
	ae.NewValues = audit.Snapshot(v)
	s.d.Recorder.Record(ctx, ae)

	return v, nil
}

// EmployeeUpdate carries optional profile and salary changes. When Version
// is set it must match the stored version.
type EmployeeUpdate struct {
	Version        *int64
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	DateOfBirth    *time.Time
	Gender         *string
	Address        *string
	Department     *string
	Designation    *string
	EmploymentType *string
	DateOfJoining  *time.Time
	GrossSalary    *decimal.Decimal
	BankName       *string
	BankIFSC       *string
	NationalID     *string
	BankAccount    *string
}

func (s *EmployeeService) Update(ctx context.Context, p *domain.Principal, id int64, in EmployeeUpdate) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ManageEmployees, "Employee updated", func(e *domain.Employee) error {
		if in.Version != nil && *in.Version != e.Version {
			return fmt.Errorf("employee %d changed since version %d: %w", e.ID, *in.Version, domain.ErrConflict)
		}
		setStr(&e.FirstName, in.FirstName)
		setStr(&e.LastName, in.LastName)
		if in.Email != nil {
			e.Email = normalizeEmail(*in.Email)
		}
		setStr(&e.Phone, in.Phone)
		if in.DateOfBirth != nil {
			e.DateOfBirth = in.DateOfBirth
		}
		setStr(&e.Gender, in.Gender)
		setStr(&e.Address, in.Address)
		setStr(&e.Department, in.Department)
		setStr(&e.Designation, in.Designation)
		if in.EmploymentType != nil {
			e.EmploymentType = strings.ToUpper(strings.TrimSpace(*in.EmploymentType))
		}
		if in.DateOfJoining != nil {
			e.DateOfJoining = *in.DateOfJoining
		}
		if in.GrossSalary != nil {
			e.GrossSalary = *in.GrossSalary
		}
		setStr(&e.BankName, in.BankName)
		if in.BankIFSC != nil {
			e.BankIFSC = strings.ToUpper(strings.TrimSpace(*in.BankIFSC))
		}
		if err := validateEmployee(e); err != nil {
			return err
		}
		return s.encodeSensitive(e, in.NationalID, in.BankAccount)
	})
}

func (s *EmployeeService) StartLeave(ctx context.Context, p *domain.Principal, id int64) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ManageEmployees, "Employee placed on leave", (*domain.Employee).StartLeave)
}

func (s *EmployeeService) EndLeave(ctx context.Context, p *domain.Principal, id int64) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ManageEmployees, "Employee returned from leave", (*domain.Employee).EndLeave)
}

type TerminationInput struct {
	LastDayOfWork   time.Time
	Reason          string
	FinalSettlement decimal.Decimal
	Details         string
}

// Terminate writes the TERMINATED status and its metadata in one update.
func (s *EmployeeService) Terminate(ctx context.Context, p *domain.Principal, id int64, in TerminationInput) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.TerminateEmployee, "Employee terminated", func(e *domain.Employee) error {
		return e.Terminate(domain.Termination{
			LastDayOfWork:   in.LastDayOfWork,
			Reason:          in.Reason,
			FinalSettlement: in.FinalSettlement,
			Details:         strings.TrimSpace(in.Details),
			RecordedAt:      time.Now().UTC(),
		})
	})
}

// Reactivate returns a terminated employee to ACTIVE and clears the
// termination metadata in the same update.
func (s *EmployeeService) Reactivate(ctx context.Context, p *domain.Principal, id int64) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ReactivateEmployee, "Employee reactivated", (*domain.Employee).Reactivate)
}

type LeaveInput struct {
	Type   string
	From   time.Time
	To     time.Time
	Reason string
}

func (s *EmployeeService) AddLeaveRecord(ctx context.Context, p *domain.Principal, id int64, in LeaveInput) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ManageEmployees, "Leave recorded", func(e *domain.Employee) error {
		return e.AddLeaveRecord(domain.LeaveRecord{
			Type:       strings.TrimSpace(in.Type),
			From:       in.From,
			To:         in.To,
			Reason:     strings.TrimSpace(in.Reason),
			RecordedBy: p.UserID,
			RecordedAt: time.Now().UTC(),
		})
	})
}

type IncrementInput struct {
	Amount        decimal.Decimal
	EffectiveDate time.Time
	Reason        string
}

func (s *EmployeeService) AddSalaryIncrement(ctx context.Context, p *domain.Principal, id int64, in IncrementInput) (*EmployeeView, error) {
	return s.mutate(ctx, p, id, auth.ManageSalary, "Salary increment", func(e *domain.Employee) error {
		effective := in.EffectiveDate
		if effective.IsZero() {
			effective = time.Now().UTC().Truncate(24 * time.Hour)
		}
		return e.AddSalaryIncrement(domain.SalaryIncrement{
			Amount:        in.Amount,
			EffectiveDate: effective,
			Reason:        strings.TrimSpace(in.Reason),
			RecordedBy:    p.UserID,
			RecordedAt:    time.Now().UTC(),
		})
	})
}

// Delete removes the employee and then its stored document files. File
// cleanup failures are logged; the record is already gone.
func (s *EmployeeService) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	if err := auth.Authorize(p, auth.DeleteEmployee); err != nil {
		return err
	}
	e, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}

	docs, err := s.d.Documents.ListByEmployee(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("hr.EmployeeService.Delete: %w", err)
	}
	if err := s.d.Employees.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("hr.EmployeeService.Delete: %w", err)
	}
	for _, d := range docs {
		if err := s.d.Files.DeleteIfExists(d.FilePath); err != nil {
			log.Warn().Err(err).Int64("document_id", d.ID).Msg("hr: failed to remove document file")
		}
	}

	ae := entry(p, domain.ActionDelete, domain.EntityEmployee, e.ID, &e.CompanyID, "Employee deleted: "+e.Code)
	ae.EntityVersion = e.Version + 1
	ae.OldValues = audit.Snapshot(newEmployeeView(e, s.d.Codec, p, false))
	s.d.Recorder.Record(ctx, ae)

	return nil
}

func (s *EmployeeService) Departments(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error) {
	if err := auth.Authorize(p, auth.ViewEmployees); err != nil {
		return nil, err
	}
	out, err := s.d.Employees.Departments(ctx, auth.CompanyFilter(p, companyID))
	if err != nil {
		return nil, fmt.Errorf("hr.EmployeeService.Departments: %w", err)
	}
	return out, nil
}

func (s *EmployeeService) Designations(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error) {
	if err := auth.Authorize(p, auth.ViewEmployees); err != nil {
		return nil, err
	}
	out, err := s.d.Employees.Designations(ctx, auth.CompanyFilter(p, companyID))
	if err != nil {
		return nil, fmt.Errorf("hr.EmployeeService.Designations: %w", err)
	}
	return out, nil
}

// mutate runs the shared update pipeline: gate, load, scope, apply, a
// version-checked write, then the audit entry stamped with the new version.
func (s *EmployeeService) mutate(ctx context.Context, p *domain.Principal, id int64, allowed auth.RoleSet, desc string, apply func(*domain.Employee) error) (*EmployeeView, error) {
	if err := auth.Authorize(p, allowed); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	before := audit.Snapshot(newEmployeeView(e, s.d.Codec, p, false))
	if err := apply(e); err != nil {
		return nil, err
	}
	if err := s.d.Employees.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("hr.EmployeeService: %s: %w", strings.ToLower(desc), err)
	}

	v := newEmployeeView(e, s.d.Codec, p, false)
	ae := entry(p, domain.ActionUpdate, domain.EntityEmployee, e.ID, &e.CompanyID, desc+": "+e.Code)
	ae.EntityVersion = e.Version
	ae.OldValues, ae.NewValues = diff(before, audit.Snapshot(v))
	s.d.Recorder.Record(ctx, ae)

	return v, nil
}

func (s *EmployeeService) encodeSensitive(e *domain.Employee, nationalID, bankAccount *string) error {
	if nationalID != nil {
		enc, err := s.d.Codec.EncodeOptional(strings.TrimSpace(*nationalID))
		if err != nil {
			return fmt.Errorf("hr: encode national id: %w", err)
		}
		e.NationalIDEnc = enc
	}
	if bankAccount != nil {
		enc, err := s.d.Codec.EncodeOptional(strings.TrimSpace(*bankAccount))
		if err != nil {
			return fmt.Errorf("hr: encode bank account: %w", err)
		}
		e.BankAccountEnc = enc
	}
	return nil
}

func validateEmployee(e *domain.Employee) error {
	verr := &domain.ValidationError{}
	if e.FirstName == "" {
		verr.Add("first_name", "is required")
	}
	if e.Email != "" && !validEmail(e.Email) {
		verr.Add("email", "is not a valid email address")
	}
	if e.DateOfJoining.IsZero() {
		verr.Add("date_of_joining", "is required")
	}
	if e.DateOfBirth != nil && !e.DateOfJoining.IsZero() && !e.DateOfBirth.Before(e.DateOfJoining) {
		verr.Add("date_of_birth", "must be before the date of joining")
	}
	if e.GrossSalary.IsNegative() {
		verr.Add("gross_salary", "must not be negative")
	}
	valid := false
	for _, t := range EmploymentTypes {
		if e.EmploymentType == t {
			valid = true
			break
		}
	}
	if !valid {
		verr.Add("employment_type", "must be one of "+strings.Join(EmploymentTypes, ", "))
	}
	return verr.OrNil()
}

// diff keeps only the top-level keys whose values changed.
func diff(before, after map[string]any) (map[string]any, map[string]any) {
	oldV := make(map[string]any)
	newV := make(map[string]any)
	for k, av := range after {
		if k == "updated_at" || k == "version" {
			continue
		}
		bv, ok := before[k]
		if !ok || fmt.Sprint(bv) != fmt.Sprint(av) {
			oldV[k] = bv
			newV[k] = av
		}
	}
	return oldV, newV
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
