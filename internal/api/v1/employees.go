package v1

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type ListEmployeesInput struct {
	PageParams
	CompanyID   int64                 `query:"company_id" minimum:"0" doc:"Filter by company (global role only)"`
	Search      string                `query:"search" maxLength:"100" doc:"Name, code or email contains"`
	Department  string                `query:"department" maxLength:"100"`
	Designation string                `query:"designation" maxLength:"100"`
	Status      domain.EmployeeStatus `query:"status" enum:"ACTIVE,ON_LEAVE,TERMINATED"`
}

type EmployeeIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Employee ID"`
}

type GetEmployeeInput struct {
	ID     int64 `path:"id" minimum:"1" doc:"Employee ID"`
	Reveal bool  `query:"reveal" doc:"Decode national id and bank account (super admin only; audited)"`
}

type EmployeeOutput struct {
	Body *hr.EmployeeView
}

type EmployeeBody struct {
	CompanyID      *int64          `json:"company_id,omitempty" doc:"Defaults to the caller's company"`
	FirstName      string          `json:"first_name" minLength:"1" maxLength:"100"`
	LastName       string          `json:"last_name,omitempty" maxLength:"100"`
	Email          string          `json:"email,omitempty" maxLength:"255"`
	Phone          string          `json:"phone,omitempty" maxLength:"32"`
	DateOfBirth    *time.Time      `json:"date_of_birth,omitempty"`
	Gender         string          `json:"gender,omitempty" maxLength:"16"`
	Address        string          `json:"address,omitempty" maxLength:"1000"`
	Department     string          `json:"department,omitempty" maxLength:"100"`
	Designation    string          `json:"designation,omitempty" maxLength:"100"`
	EmploymentType string          `json:"employment_type,omitempty" enum:"FULL_TIME,PART_TIME,CONTRACT,INTERN"`
	DateOfJoining  time.Time       `json:"date_of_joining"`
	GrossSalary    decimal.Decimal `json:"gross_salary,omitempty" doc:"Decimal string"`
	BankName       string          `json:"bank_name,omitempty" maxLength:"100"`
	BankIFSC       string          `json:"bank_ifsc,omitempty" maxLength:"20"`
	NationalID     string          `json:"national_id,omitempty" maxLength:"32"`
	BankAccount    string          `json:"bank_account,omitempty" maxLength:"34"`
}

type CreateEmployeeInput struct {
	Body EmployeeBody
}

type UpdateEmployeeInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Employee ID"`
	Body struct {
		Version        *int64           `json:"version,omitempty" doc:"Expected current version; stale versions are rejected with 409"`
		FirstName      *string          `json:"first_name,omitempty" maxLength:"100"`
		LastName       *string          `json:"last_name,omitempty" maxLength:"100"`
		Email          *string          `json:"email,omitempty" maxLength:"255"`
		Phone          *string          `json:"phone,omitempty" maxLength:"32"`
		DateOfBirth    *time.Time       `json:"date_of_birth,omitempty"`
		Gender         *string          `json:"gender,omitempty" maxLength:"16"`
		Address        *string          `json:"address,omitempty" maxLength:"1000"`
		Department     *string          `json:"department,omitempty" maxLength:"100"`
		Designation    *string          `json:"designation,omitempty" maxLength:"100"`
		EmploymentType *string          `json:"employment_type,omitempty" enum:"FULL_TIME,PART_TIME,CONTRACT,INTERN"`
		DateOfJoining  *time.Time       `json:"date_of_joining,omitempty"`
		GrossSalary    *decimal.Decimal `json:"gross_salary,omitempty"`
		BankName       *string          `json:"bank_name,omitempty" maxLength:"100"`
		BankIFSC       *string          `json:"bank_ifsc,omitempty" maxLength:"20"`
		NationalID     *string          `json:"national_id,omitempty" maxLength:"32"`
		BankAccount    *string          `json:"bank_account,omitempty" maxLength:"34"`
	}
}

type TerminateEmployeeInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Employee ID"`
	Body struct {
		LastDayOfWork   time.Time       `json:"last_day_of_work"`
		Reason          string          `json:"reason" minLength:"1" maxLength:"500"`
		FinalSettlement decimal.Decimal `json:"final_settlement,omitempty"`
		Details         string          `json:"details,omitempty" maxLength:"2000"`
	}
}

type LeaveRecordInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Employee ID"`
	Body struct {
		Type   string    `json:"type" minLength:"1" maxLength:"32" doc:"e.g. SICK, CASUAL, EARNED"`
		From   time.Time `json:"from"`
		To     time.Time `json:"to"`
		Reason string    `json:"reason,omitempty" maxLength:"500"`
	}
}

type SalaryIncrementInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Employee ID"`
	Body struct {
		Amount        decimal.Decimal `json:"amount"`
		EffectiveDate time.Time       `json:"effective_date,omitempty"`
		Reason        string          `json:"reason,omitempty" maxLength:"500"`
	}
}

type MetaInput struct {
	CompanyID int64 `query:"company_id" minimum:"0"`
}

type MetaOutput struct {
	Body []string
}

// RegisterEmployeeRoutes wires the employee record and lifecycle endpoints.
// Decimal amounts travel as JSON strings.
func RegisterEmployeeRoutes(api huma.API, svc EmployeeService) {
	api.OpenAPI().Components.Schemas.RegisterTypeAlias(reflect.TypeFor[decimal.Decimal](), reflect.TypeFor[string]())

	huma.Register(api, huma.Operation{
		OperationID: "list-employees",
		Method:      http.MethodGet,
		Path:        "/employees",
		Summary:     "List employees",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *ListEmployeesInput) (*ListOutput[*hr.EmployeeView], error) {
		page, err := svc.List(ctx, middleware.PrincipalFromContext(ctx), hr.EmployeeQuery{
			CompanyID:   optionalID(input.CompanyID),
			Search:      input.Search,
			Department:  input.Department,
			Designation: input.Designation,
			Status:      input.Status,
			Page:        input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return listOutput(page), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employee",
		Method:      http.MethodGet,
		Path:        "/employees/{id}",
		Summary:     "Get an employee",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *GetEmployeeInput) (*EmployeeOutput, error) {
		v, err := svc.Get(ctx, middleware.PrincipalFromContext(ctx), input.ID, input.Reveal)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-employee",
		Method:        http.MethodPost,
		Path:          "/employees",
		Summary:       "Create an employee",
		Description:   "The employee code is generated as <PFX>-<YEAR>-<NNNN> from the company's sequence.",
		Tags:          []string{"Employees"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateEmployeeInput) (*EmployeeOutput, error) {
		b := input.Body
		v, err := svc.Create(ctx, middleware.PrincipalFromContext(ctx), hr.EmployeeInput{
			CompanyID:      b.CompanyID,
			FirstName:      b.FirstName,
			LastName:       b.LastName,
			Email:          b.Email,
			Phone:          b.Phone,
			DateOfBirth:    b.DateOfBirth,
			Gender:         b.Gender,
			Address:        b.Address,
			Department:     b.Department,
			Designation:    b.Designation,
			EmploymentType: b.EmploymentType,
			DateOfJoining:  b.DateOfJoining,
			GrossSalary:    b.GrossSalary,
			BankName:       b.BankName,
			BankIFSC:       b.BankIFSC,
			NationalID:     b.NationalID,
			BankAccount:    b.BankAccount,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-employee",
		Method:      http.MethodPatch,
		Path:        "/employees/{id}",
		Summary:     "Update employee profile or salary",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *UpdateEmployeeInput) (*EmployeeOutput, error) {
		b := input.Body
		v, err := svc.Update(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.EmployeeUpdate{
			Version:        b.Version,
			FirstName:      b.FirstName,
			LastName:       b.LastName,
			Email:          b.Email,
			Phone:          b.Phone,
			DateOfBirth:    b.DateOfBirth,
			Gender:         b.Gender,
			Address:        b.Address,
			Department:     b.Department,
			Designation:    b.Designation,
			EmploymentType: b.EmploymentType,
			DateOfJoining:  b.DateOfJoining,
			GrossSalary:    b.GrossSalary,
			BankName:       b.BankName,
			BankIFSC:       b.BankIFSC,
			NationalID:     b.NationalID,
			BankAccount:    b.BankAccount,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	transitions := []struct {
		id, path, summary string
		run               func(context.Context, *domain.Principal, int64) (*hr.EmployeeView, error)
	}{
		{"start-employee-leave", "/employees/{id}/leave/start", "Place an employee on leave", svc.StartLeave},
		{"end-employee-leave", "/employees/{id}/leave/end", "Return an employee from leave", svc.EndLeave},
		{"reactivate-employee", "/employees/{id}/reactivate", "Reactivate a terminated employee", svc.Reactivate},
	}
	for _, tr := range transitions {
		huma.Register(api, huma.Operation{
			OperationID: tr.id,
			Method:      http.MethodPost,
			Path:        tr.path,
			Summary:     tr.summary,
			Tags:        []string{"Employees"},
		}, func(ctx context.Context, input *EmployeeIDInput) (*EmployeeOutput, error) {
			v, err := tr.run(ctx, middleware.PrincipalFromContext(ctx), input.ID)
			if err != nil {
				return nil, apiError(ctx, err)
			}
			return &EmployeeOutput{Body: v}, nil
		})
	}

	huma.Register(api, huma.Operation{
		OperationID: "terminate-employee",
		Method:      http.MethodPost,
		Path:        "/employees/{id}/terminate",
		Summary:     "Terminate an employee",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *TerminateEmployeeInput) (*EmployeeOutput, error) {
		v, err := svc.Terminate(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.TerminationInput{
			LastDayOfWork:   input.Body.LastDayOfWork,
			Reason:          input.Body.Reason,
			FinalSettlement: input.Body.FinalSettlement,
			Details:         input.Body.Details,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-leave-record",
		Method:      http.MethodPost,
		Path:        "/employees/{id}/leave-records",
		Summary:     "Record a leave period",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *LeaveRecordInput) (*EmployeeOutput, error) {
		v, err := svc.AddLeaveRecord(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.LeaveInput{
			Type:   input.Body.Type,
			From:   input.Body.From,
			To:     input.Body.To,
			Reason: input.Body.Reason,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-salary-increment",
		Method:      http.MethodPost,
		Path:        "/employees/{id}/salary-increments",
		Summary:     "Raise the gross salary",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *SalaryIncrementInput) (*EmployeeOutput, error) {
		v, err := svc.AddSalaryIncrement(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.IncrementInput{
			Amount:        input.Body.Amount,
			EffectiveDate: input.Body.EffectiveDate,
			Reason:        input.Body.Reason,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &EmployeeOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-employee",
		Method:        http.MethodDelete,
		Path:          "/employees/{id}",
		Summary:       "Delete an employee and its documents",
		Tags:          []string{"Employees"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *EmployeeIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, middleware.PrincipalFromContext(ctx), input.ID); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-departments",
		Method:      http.MethodGet,
		Path:        "/meta/departments",
		Summary:     "Distinct departments",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *MetaInput) (*MetaOutput, error) {
		out, err := svc.Departments(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &MetaOutput{Body: nonNil(out)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-designations",
		Method:      http.MethodGet,
		Path:        "/meta/designations",
		Summary:     "Distinct designations",
		Tags:        []string{"Employees"},
	}, func(ctx context.Context, input *MetaInput) (*MetaOutput, error) {
		out, err := svc.Designations(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &MetaOutput{Body: nonNil(out)}, nil
	})
}
