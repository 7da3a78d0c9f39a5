package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/hrm/internal/api/v1"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
)

func masked(s string) *string { return &s }

func sampleView(id int64) *hr.EmployeeView {
	return &hr.EmployeeView{
		ID:               id,
		CompanyID:        3,
		Code:             "ACM-2026-0001",
		FirstName:        "Ravi",
		LastName:         "Kumar",
		FullName:         "Ravi Kumar",
		EmploymentType:   "FULL_TIME",
		DateOfJoining:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		GrossSalary:      decimal.RequireFromString("50000.50"),
		NationalID:       masked("XXXX-XXXX-9012"),
		BankAccount:      masked("XXXXX4455"),
		Status:           domain.EmployeeActive,
		LeaveRecords:     []domain.LeaveRecord{},
		SalaryIncrements: []domain.SalaryIncrement{},
		Version:          1,
	}
}

func TestGetEmployee_ScopeLooksMissing(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		getFunc: func(_ context.Context, _ *domain.Principal, id int64, _ bool) (*hr.EmployeeView, error) {
			if id == 42 {
				return sampleView(42), nil
			}
			// 43 belongs to another company, 999 does not exist: same error.
			return nil, fmt.Errorf("hr.EmployeeService.Get: employee: %w", domain.ErrNotFound)
		},
	})

	ctx := principalCtx(member(domain.RoleHR, 3))
	ok := api.GetCtx(ctx, "/employees/42")
	require.Equal(t, http.StatusOK, ok.Code)

	other := api.GetCtx(ctx, "/employees/43")
	missing := api.GetCtx(ctx, "/employees/999")
	assert.Equal(t, http.StatusNotFound, other.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, other.Body.String(), missing.Body.String())
	assert.Contains(t, other.Body.String(), "employee")
	assert.NotContains(t, other.Body.String(), "hr.EmployeeService")
}

func TestGetEmployee_RevealFlag(t *testing.T) {
	t.Parallel()

	var gotReveal bool
	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		getFunc: func(_ context.Context, _ *domain.Principal, _ int64, reveal bool) (*hr.EmployeeView, error) {
			gotReveal = reveal
			v := sampleView(42)
			v.NationalID = masked("123456789012")
			v.Revealed = true
			return v, nil
		},
	})

	resp := api.GetCtx(principalCtx(superAdmin()), "/employees/42?reveal=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, gotReveal)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "123456789012", body["national_id"])
	assert.Equal(t, true, body["revealed"])
	assert.Equal(t, "50000.5", body["gross_salary"])
}

func TestListEmployees_Pagination(t *testing.T) {
	t.Parallel()

	var got hr.EmployeeQuery
	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		listFunc: func(_ context.Context, _ *domain.Principal, q hr.EmployeeQuery) (*hr.Page[*hr.EmployeeView], error) {
			got = q
			return &hr.Page[*hr.EmployeeView]{
				Items: []*hr.EmployeeView{sampleView(1), sampleView(2)},
				Info:  q.Page.Info(12),
			}, nil
		},
	})

	resp := api.GetCtx(principalCtx(superAdmin()), "/employees?page=2&limit=5&status=ON_LEAVE&company_id=3&department=Sales")
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, domain.EmployeeOnLeave, got.Status)
	assert.Equal(t, "Sales", got.Department)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(3), *got.CompanyID)

	var body struct {
		Items      []map[string]any `json:"items"`
		Pagination domain.PageInfo  `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Items, 2)
	assert.Equal(t, domain.PageInfo{Total: 12, Page: 2, Limit: 5, TotalPages: 3, HasNext: true, HasPrev: true}, body.Pagination)
}

func TestListEmployees_RejectsBadQuery(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{})

	ctx := principalCtx(superAdmin())
	assert.Equal(t, http.StatusUnprocessableEntity, api.GetCtx(ctx, "/employees?limit=500").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.GetCtx(ctx, "/employees?status=RETIRED").Code)
}

func TestCreateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var got hr.EmployeeInput
		_, api := humatest.New(t)
		v1.RegisterEmployeeRoutes(api, &mockEmployees{
			createFunc: func(_ context.Context, p *domain.Principal, in hr.EmployeeInput) (*hr.EmployeeView, error) {
				assert.Equal(t, domain.RoleCompanyAdmin, p.Role)
				got = in
				return sampleView(7), nil
			},
		})

		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees", map[string]any{
			"first_name":      "Ravi",
			"last_name":       "Kumar",
			"date_of_joining": "2026-03-01T00:00:00Z",
			"gross_salary":    "50000.50",
			"national_id":     "123456789012",
			"employment_type": "FULL_TIME",
		})
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.True(t, decimal.RequireFromString("50000.5").Equal(got.GrossSalary))
		assert.Equal(t, "123456789012", got.NationalID)
		assert.Nil(t, got.CompanyID)
		assert.Contains(t, resp.Body.String(), `"employee_code":"ACM-2026-0001"`)
		assert.NotContains(t, resp.Body.String(), "123456789012")
	})

	t.Run("validation_details", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterEmployeeRoutes(api, &mockEmployees{
			createFunc: func(context.Context, *domain.Principal, hr.EmployeeInput) (*hr.EmployeeView, error) {
				verr := &domain.ValidationError{}
				verr.Add("national_id", "must be 12 digits")
				verr.Add("bank_account", "must be 9 to 18 digits")
				return nil, verr
			},
		})

		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees", map[string]any{
			"first_name":      "Ravi",
			"date_of_joining": "2026-03-01T00:00:00Z",
			"national_id":     "12",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

		var body struct {
			Errors []struct {
				Location string `json:"location"`
				Message  string `json:"message"`
			} `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Errors, 2)
		assert.Equal(t, "body.national_id", body.Errors[0].Location)
		assert.Equal(t, "must be 12 digits", body.Errors[0].Message)
		assert.Equal(t, "body.bank_account", body.Errors[1].Location)
	})

	t.Run("salary_must_be_a_string", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterEmployeeRoutes(api, &mockEmployees{})

		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees", map[string]any{
			"first_name":      "Ravi",
			"date_of_joining": "2026-03-01T00:00:00Z",
			"gross_salary":    map[string]any{"amount": 1},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestUpdateEmployee_StaleVersion(t *testing.T) {
	t.Parallel()

	var got hr.EmployeeUpdate
	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		updateFunc: func(_ context.Context, _ *domain.Principal, id int64, in hr.EmployeeUpdate) (*hr.EmployeeView, error) {
			assert.Equal(t, int64(42), id)
			got = in
			return nil, fmt.Errorf("hr.EmployeeService.Update: employee was modified concurrently: %w", domain.ErrConflict)
		},
	})

	resp := api.PatchCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42", map[string]any{
		"version":     3,
		"designation": "Engineer II",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "employee was modified concurrently")
	require.NotNil(t, got.Version)
	assert.Equal(t, int64(3), *got.Version)
	require.NotNil(t, got.Designation)
	assert.Equal(t, "Engineer II", *got.Designation)
	assert.Nil(t, got.FirstName)
}

func TestEmployeeTransitions(t *testing.T) {
	t.Parallel()

	invalid := fmt.Errorf("hr.EmployeeService.StartLeave: employee is TERMINATED: %w", domain.ErrInvalidTransition)
	tests := []struct {
		name       string
		path       string
		mock       func(calls *string) *mockEmployees
		wantStatus int
		wantCall   string
	}{
		{
			name: "start_leave",
			path: "/employees/42/leave/start",
			mock: func(calls *string) *mockEmployees {
				return &mockEmployees{startLeaveFunc: func(context.Context, *domain.Principal, int64) (*hr.EmployeeView, error) {
					*calls = "start"
					v := sampleView(42)
					v.Status = domain.EmployeeOnLeave
					return v, nil
				}}
			},
			wantStatus: http.StatusOK,
			wantCall:   "start",
		},
		{
			name: "end_leave",
			path: "/employees/42/leave/end",
			mock: func(calls *string) *mockEmployees {
				return &mockEmployees{endLeaveFunc: func(context.Context, *domain.Principal, int64) (*hr.EmployeeView, error) {
					*calls = "end"
					return sampleView(42), nil
				}}
			},
			wantStatus: http.StatusOK,
			wantCall:   "end",
		},
		{
			name: "reactivate",
			path: "/employees/42/reactivate",
			mock: func(calls *string) *mockEmployees {
				return &mockEmployees{reactivateFunc: func(context.Context, *domain.Principal, int64) (*hr.EmployeeView, error) {
					*calls = "reactivate"
					return sampleView(42), nil
				}}
			},
			wantStatus: http.StatusOK,
			wantCall:   "reactivate",
		},
		{
			name: "invalid_transition",
			path: "/employees/42/leave/start",
			mock: func(calls *string) *mockEmployees {
				return &mockEmployees{startLeaveFunc: func(context.Context, *domain.Principal, int64) (*hr.EmployeeView, error) {
					*calls = "start"
					return nil, invalid
				}}
			},
			wantStatus: http.StatusConflict,
			wantCall:   "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var call string
			_, api := humatest.New(t)
			v1.RegisterEmployeeRoutes(api, tt.mock(&call))

			resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), tt.path)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantCall, call)
		})
	}
}

func TestTerminateEmployee(t *testing.T) {
	t.Parallel()

	var got hr.TerminationInput
	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		terminateFunc: func(_ context.Context, _ *domain.Principal, _ int64, in hr.TerminationInput) (*hr.EmployeeView, error) {
			got = in
			v := sampleView(42)
			v.Status = domain.EmployeeTerminated
			return v, nil
		},
	})

	resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42/terminate", map[string]any{
		"last_day_of_work": "2026-06-30T00:00:00Z",
		"reason":           "Resigned",
		"final_settlement": "12000.00",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Resigned", got.Reason)
	assert.True(t, decimal.NewFromInt(12000).Equal(got.FinalSettlement))
	assert.Contains(t, resp.Body.String(), `"status":"TERMINATED"`)
}

func TestDeleteEmployee_InternalErrorIsOpaque(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		deleteFunc: func(context.Context, *domain.Principal, int64) error {
			return errors.New("postgres.EmployeeRepo.Delete: dial tcp 10.0.0.5:5432: connection refused")
		},
	})

	resp := api.DeleteCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "internal server error")
	assert.NotContains(t, resp.Body.String(), "10.0.0.5")
}

func TestEmployeeMeta(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterEmployeeRoutes(api, &mockEmployees{
		departmentsFunc: func(_ context.Context, _ *domain.Principal, companyID *int64) ([]string, error) {
			assert.Nil(t, companyID)
			return []string{"Engineering", "Sales"}, nil
		},
		designationsFunc: func(context.Context, *domain.Principal, *int64) ([]string, error) {
			return nil, nil
		},
	})

	ctx := principalCtx(member(domain.RoleViewer, 3))
	deps := api.GetCtx(ctx, "/meta/departments")
	require.Equal(t, http.StatusOK, deps.Code)
	assert.JSONEq(t, `["Engineering","Sales"]`, deps.Body.String())

	des := api.GetCtx(ctx, "/meta/designations")
	require.Equal(t, http.StatusOK, des.Code)
	assert.JSONEq(t, `[]`, des.Body.String())
}
