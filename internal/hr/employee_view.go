package hr

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/secrets"
)

// EmployeeView is the read model of an employee. Sensitive fields are
// masked unless the caller may and did ask to reveal them.
type EmployeeView struct {
	ID               int64                    `json:"id"`
	CompanyID        int64                    `json:"company_id"`
	Code             string                   `json:"employee_code"`
	FirstName        string                   `json:"first_name"`
	LastName         string                   `json:"last_name"`
	FullName         string                   `json:"full_name"`
	Email            string                   `json:"email,omitempty"`
	Phone            string                   `json:"phone,omitempty"`
	DateOfBirth      *time.Time               `json:"date_of_birth,omitempty"`
	Gender           string                   `json:"gender,omitempty"`
	Address          string                   `json:"address,omitempty"`
	Department       string                   `json:"department,omitempty"`
	Designation      string                   `json:"designation,omitempty"`
	EmploymentType   string                   `json:"employment_type"`
	DateOfJoining    time.Time                `json:"date_of_joining"`
	GrossSalary      decimal.Decimal          `json:"gross_salary"`
	BankName         string                   `json:"bank_name,omitempty"`
	BankIFSC         string                   `json:"bank_ifsc,omitempty"`
	NationalID       *string                  `json:"national_id"`
	BankAccount      *string                  `json:"bank_account"`
	Revealed         bool                     `json:"revealed"`
	Status           domain.EmployeeStatus    `json:"status"`
	Termination      *domain.Termination      `json:"termination,omitempty"`
	LeaveRecords     []domain.LeaveRecord     `json:"leave_records"`
	SalaryIncrements []domain.SalaryIncrement `json:"salary_increments"`
	Version          int64                    `json:"version"`
	CreatedBy        *int64                   `json:"created_by,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// newEmployeeView projects e for p. Phone numbers are masked for roles
// without contact access; national id and bank account are masked unless
// reveal is set and p may reveal.
func newEmployeeView(e *domain.Employee, codec *secrets.Codec, p *domain.Principal, reveal bool) *EmployeeView {
	v := &EmployeeView{
		ID:               e.ID,
		CompanyID:        e.CompanyID,
		Code:             e.Code,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		FullName:         e.FullName(),
		Email:            e.Email,
		Phone:            e.Phone,
		DateOfBirth:      e.DateOfBirth,
		Gender:           e.Gender,
		Address:          e.Address,
		Department:       e.Department,
		Designation:      e.Designation,
		EmploymentType:   e.EmploymentType,
		DateOfJoining:    e.DateOfJoining,
		GrossSalary:      e.GrossSalary,
		BankName:         e.BankName,
		BankIFSC:         e.BankIFSC,
		Status:           e.Status,
		Termination:      e.Termination,
		LeaveRecords:     e.LeaveRecords,
		SalaryIncrements: e.SalaryIncrements,
		Version:          e.Version,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
	if v.LeaveRecords == nil {
		v.LeaveRecords = []domain.LeaveRecord{}
	}
	if v.SalaryIncrements == nil {
		v.SalaryIncrements = []domain.SalaryIncrement{}
	}

	if reveal && auth.CanReveal(p) {
		v.NationalID = codec.Reveal(e.NationalIDEnc)
		v.BankAccount = codec.Reveal(e.BankAccountEnc)
		v.Revealed = true
	} else {
		v.NationalID = codec.Masked(secrets.KindNationalID, e.NationalIDEnc)
		v.BankAccount = codec.Masked(secrets.KindBankAccount, e.BankAccountEnc)
	}

	if e.Phone != "" && auth.Authorize(p, auth.ViewContactDetails) != nil {
		v.Phone = secrets.Mask(secrets.KindPhone, e.Phone)
	}

	return v
}
