package v1

import (
	"context"
	"net/http"
	"reflect"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type CompanyScopeInput struct {
	CompanyID int64 `query:"company_id" minimum:"0" doc:"Honoured for SUPER_ADMIN only"`
}

type RecentActivityInput struct {
	CompanyScopeInput
	Limit int `query:"limit" minimum:"0" maximum:"100" default:"10"`
}

type PeriodInput struct {
	CompanyScopeInput
	Days int `query:"days" minimum:"0" maximum:"365" doc:"Window in days including today; 0 uses the default"`
}

// BodyOutput wraps a plain JSON body.
type BodyOutput[T any] struct {
	Body T
}

// RegisterDashboardRoutes wires the read-only aggregate views.
func RegisterDashboardRoutes(api huma.API, svc DashboardService) {
	api.OpenAPI().Components.Schemas.RegisterTypeAlias(reflect.TypeFor[decimal.Decimal](), reflect.TypeFor[string]())

	huma.Register(api, huma.Operation{
		OperationID: "get-dashboard-stats",
		Method:      http.MethodGet,
		Path:        "/dashboard/stats",
		Summary:     "Headcount, salary and joining overview",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[*domain.Overview], error) {
		o, err := svc.Overview(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		o.MonthlyJoinings = nonNil(o.MonthlyJoinings)
		o.Designations = nonNil(o.Designations)
		o.Genders = nonNil(o.Genders)
		o.Departments = nonNil(o.Departments)
		return &BodyOutput[*domain.Overview]{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-salary-analytics",
		Method:      http.MethodGet,
		Path:        "/dashboard/salary-analytics",
		Summary:     "Salary figures and bands of active employees",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[*domain.SalaryAnalytics], error) {
		a, err := svc.SalaryAnalytics(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		a.Ranges = nonNil(a.Ranges)
		return &BodyOutput[*domain.SalaryAnalytics]{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-document-stats",
		Method:      http.MethodGet,
		Path:        "/dashboard/document-stats",
		Summary:     "Document counts by verification and type",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[*domain.DocumentStats], error) {
		st, err := svc.DocumentStats(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		st.Types = nonNil(st.Types)
		return &BodyOutput[*domain.DocumentStats]{Body: st}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employee-status",
		Method:      http.MethodGet,
		Path:        "/dashboard/employee-status",
		Summary:     "Employee counts by status",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[[]domain.Count], error) {
		counts, err := svc.EmployeeStatus(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]domain.Count]{Body: nonNil(counts)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-yearly-joinings",
		Method:      http.MethodGet,
		Path:        "/dashboard/yearly-joinings",
		Summary:     "Joinings per year for the last five years",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[[]domain.YearlyJoining], error) {
		years, err := svc.YearlyJoinings(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]domain.YearlyJoining]{Body: nonNil(years)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-recent-activity",
		Method:      http.MethodGet,
		Path:        "/dashboard/recent-activity",
		Summary:     "Newest audit entries",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *RecentActivityInput) (*BodyOutput[[]*domain.AuditEntry], error) {
		entries, err := svc.RecentActivity(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID), input.Limit)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]*domain.AuditEntry]{Body: nonNil(entries)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-leaves",
		Method:      http.MethodGet,
		Path:        "/dashboard/leaves",
		Summary:     "Every recorded leave, newest first",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[[]domain.LeaveEntry], error) {
		leaves, err := svc.Leaves(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]domain.LeaveEntry]{Body: nonNil(leaves)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-new-joinings",
		Method:      http.MethodGet,
		Path:        "/dashboard/new-joinings",
		Summary:     "Employees who joined in the last 30 days",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, input *CompanyScopeInput) (*BodyOutput[[]domain.NewJoining], error) {
		joinings, err := svc.NewJoinings(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID))
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]domain.NewJoining]{Body: nonNil(joinings)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-summary",
		Method:      http.MethodGet,
		Path:        "/logs/audit-summary",
		Summary:     "Audit entries grouped by action and entity type",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *PeriodInput) (*BodyOutput[*domain.AuditSummary], error) {
		sum, err := svc.AuditSummary(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID), input.Days)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		sum.Actions = nonNil(sum.Actions)
		sum.MostActive = nonNil(sum.MostActive)
		return &BodyOutput[*domain.AuditSummary]{Body: sum}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity-timeline",
		Method:      http.MethodGet,
		Path:        "/logs/activity-timeline",
		Summary:     "Audit entries per day and action",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *PeriodInput) (*BodyOutput[[]domain.TimelinePoint], error) {
		points, err := svc.ActivityTimeline(ctx, middleware.PrincipalFromContext(ctx), optionalID(input.CompanyID), input.Days)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &BodyOutput[[]domain.TimelinePoint]{Body: nonNil(points)}, nil
	})
}
