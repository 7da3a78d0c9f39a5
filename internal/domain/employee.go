package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeStatus is the lifecycle state of an employee record.
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "ACTIVE"
	EmployeeOnLeave    EmployeeStatus = "ON_LEAVE"
	EmployeeTerminated EmployeeStatus = "TERMINATED"
)

// ValidTransition reports whether moving from s to next is allowed.
//
//	ACTIVE -> ON_LEAVE, TERMINATED
//	ON_LEAVE -> ACTIVE, TERMINATED
//	TERMINATED -> ACTIVE (reactivation)
func (s EmployeeStatus) ValidTransition(next EmployeeStatus) bool {
	switch s {
	case EmployeeActive:
		return next == EmployeeOnLeave || next == EmployeeTerminated
	case EmployeeOnLeave:
		return next == EmployeeActive || next == EmployeeTerminated
	case EmployeeTerminated:
		return next == EmployeeActive
	default:
		return false
	}
}

// Termination is the terminal metadata of a terminated employee. It exists
// exactly when the status is TERMINATED.
type Termination struct {
	LastDayOfWork   time.Time       `json:"last_day_of_work"`
	Reason          string          `json:"reason"`
	FinalSettlement decimal.Decimal `json:"final_settlement"`
	Details         string          `json:"details,omitempty"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

type LeaveRecord struct {
	Type       string    `json:"type"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Days       int       `json:"days"`
	Reason     string    `json:"reason,omitempty"`
	RecordedBy int64     `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

type SalaryIncrement struct {
	Amount        decimal.Decimal `json:"amount"`
	PreviousGross decimal.Decimal `json:"previous_gross"`
	NewGross      decimal.Decimal `json:"new_gross"`
	EffectiveDate time.Time       `json:"effective_date"`
	Reason        string          `json:"reason,omitempty"`
	RecordedBy    int64           `json:"recorded_by"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

type Employee struct {
	ID             int64
	CompanyID      int64
	Code           string // <PFX>-<YEAR>-<NNNN>, assigned on create
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

	// Ciphertext only; plaintext is never stored.
	NationalIDEnc  string
	BankAccountEnc string

	Status           EmployeeStatus
	Termination      *Termination
	LeaveRecords     []LeaveRecord
	SalaryIncrements []SalaryIncrement

	// Version increases with every committed change and orders the audit
	// history of the record.
	Version   int64
	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e *Employee) transition(next EmployeeStatus) error {
	if !e.Status.ValidTransition(next) {
		return fmt.Errorf("employee %d: %s -> %s: %w", e.ID, e.Status, next, ErrInvalidTransition)
	}
	e.Status = next
	return nil
}

// StartLeave moves an active employee on leave.
func (e *Employee) StartLeave() error {
	if e.Status != EmployeeActive {
		return fmt.Errorf("employee %d: start leave from %s: %w", e.ID, e.Status, ErrInvalidTransition)
	}
	return e.transition(EmployeeOnLeave)
}

// EndLeave returns an employee on leave to active.
func (e *Employee) EndLeave() error {
	if e.Status != EmployeeOnLeave {
		return fmt.Errorf("employee %d: end leave from %s: %w", e.ID, e.Status, ErrInvalidTransition)
	}
	return e.transition(EmployeeActive)
}

// Terminate sets the TERMINATED status together with its metadata.
func (e *Employee) Terminate(t Termination) error {
	verr := &ValidationError{}
	if strings.TrimSpace(t.Reason) == "" {
		verr.Add("reason", "termination reason is required")
	}
	if t.LastDayOfWork.IsZero() {
		verr.Add("last_day_of_work", "last day of work is required")
	}
	if t.FinalSettlement.IsNegative() {
		verr.Add("final_settlement", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if err := e.transition(EmployeeTerminated); err != nil {
		return err
	}
	t.Reason = strings.TrimSpace(t.Reason)
	e.Termination = &t
	return nil
}

// Reactivate returns a terminated employee to ACTIVE and clears every
// termination field in the same step.
func (e *Employee) Reactivate() error {
	if e.Status != EmployeeTerminated {
		return fmt.Errorf("employee %d: reactivate from %s: %w", e.ID, e.Status, ErrInvalidTransition)
	}
	if err := e.transition(EmployeeActive); err != nil {
		return err
	}
	e.Termination = nil
	return nil
}

// AddSalaryIncrement raises the gross salary and appends the history entry.
func (e *Employee) AddSalaryIncrement(inc SalaryIncrement) error {
	if !inc.Amount.IsPositive() {
		return NewValidationError("amount", "increment amount must be positive")
	}
	if e.Status == EmployeeTerminated {
		return fmt.Errorf("employee %d: increment on terminated record: %w", e.ID, ErrInvalidTransition)
	}
	inc.PreviousGross = e.GrossSalary
	inc.NewGross = e.GrossSalary.Add(inc.Amount)
	e.GrossSalary = inc.NewGross
	e.SalaryIncrements = append(e.SalaryIncrements, inc)
	return nil
}

// AddLeaveRecord appends a leave entry; the day count is inclusive.
func (e *Employee) AddLeaveRecord(rec LeaveRecord) error {
	verr := &ValidationError{}
	if strings.TrimSpace(rec.Type) == "" {
		verr.Add("type", "leave type is required")
	}
	if rec.From.IsZero() || rec.To.IsZero() {
		verr.Add("from", "leave dates are required")
	} else if calendarDate(rec.To).Before(calendarDate(rec.From)) {
		verr.Add("to", "must not be before from")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	rec.Days = int(calendarDate(rec.To).Sub(calendarDate(rec.From)).Hours()/24) + 1
	e.LeaveRecords = append(e.LeaveRecords, rec)
	return nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatEmployeeCode renders the generated employee code.
func FormatEmployeeCode(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

type EmployeeFilter struct {
	CompanyID   *int64
	Search      string
	Department  string
	Designation string
	Status      EmployeeStatus
	Page        Page
}

type EmployeeRepository interface {
	// Create allocates the next code for the company and year and inserts
	// the employee in one transaction.
	Create(ctx context.Context, e *Employee, codePrefix string) error
	GetByID(ctx context.Context, id int64) (*Employee, error)
	// Update writes every mutable column when the stored version equals
	// e.Version, then bumps e.Version. A stale version yields ErrConflict.
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f EmployeeFilter) ([]*Employee, int64, error)
	Departments(ctx context.Context, companyID *int64) ([]string, error)
	Designations(ctx context.Context, companyID *int64) ([]string, error)
}
