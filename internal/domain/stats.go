package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Count is one bucket of a grouped count.
type Count struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type CompanyHeadcount struct {
	CompanyID   int64           `json:"company_id"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Employees   int64           `json:"employee_count"`
	TotalSalary decimal.Decimal `json:"total_salary"`
}

type DepartmentHeadcount struct {
	Department  string          `json:"department"`
	Count       int64           `json:"count"`
	TotalSalary decimal.Decimal `json:"total_salary"`
}

// Overview is the headline dashboard for one company, or for all of them
// when unscoped. Headcount and salary figures cover ACTIVE employees.
type Overview struct {
	CompanyName          string                `json:"company_name,omitempty"`
	TotalCompanies       int64                 `json:"total_companies"`
	TotalEmployees       int64                 `json:"total_employees"`
	TotalSalary          decimal.Decimal       `json:"total_salary"`
	NewJoiningsThisMonth int64                 `json:"new_joinings_this_month"`
	EmployeesOnLeave     int64                 `json:"employees_on_leave"`
	TerminatedEmployees  int64                 `json:"terminated_employees"`
	PendingVerifications int64                 `json:"pending_verifications"`
	CompanyDistribution  []CompanyHeadcount    `json:"company_distribution,omitempty"`
	MonthlyJoinings      []Count               `json:"monthly_joinings"`
	Departments          []DepartmentHeadcount `json:"department_distribution"`
	Designations         []Count               `json:"designation_distribution"`
	Genders              []Count               `json:"gender_distribution"`
}

type SalaryAnalytics struct {
	TotalEmployees int64           `json:"total_employees"`
	Average        decimal.Decimal `json:"average_salary"`
	Min            decimal.Decimal `json:"min_salary"`
	Max            decimal.Decimal `json:"max_salary"`
	Total          decimal.Decimal `json:"total_salary"`
	Ranges         []Count         `json:"salary_ranges"`
}

type DocumentTypeCount struct {
	Type     string `json:"document_type"`
	Count    int64  `json:"count"`
	Verified int64  `json:"verified_count"`
}

type DocumentStats struct {
	Total                  int64               `json:"total_documents"`
	Verified               int64               `json:"verified_documents"`
	Pending                int64               `json:"pending_documents"`
	EmployeesWithDocuments int64               `json:"employees_with_documents"`
	Types                  []DocumentTypeCount `json:"document_types"`
}

type YearlyJoining struct {
	Year      int             `json:"year"`
	Count     int64           `json:"count"`
	AvgSalary decimal.Decimal `json:"avg_salary"`
}

// LeaveEntry is a leave record flattened with its employee.
type LeaveEntry struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Department   string `json:"department,omitempty"`
	CompanyID    int64  `json:"company_id"`
	CompanyName  string `json:"company_name"`
	LeaveRecord
}

type NewJoining struct {
	EmployeeID    int64     `json:"employee_id"`
	EmployeeCode  string    `json:"employee_code"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Department    string    `json:"department,omitempty"`
	Designation   string    `json:"designation,omitempty"`
	DateOfJoining time.Time `json:"date_of_joining"`
	CompanyID     int64     `json:"company_id"`
	CompanyName   string    `json:"company_name"`
}

type ActionSummary struct {
	Action         AuditAction `json:"action"`
	EntityType     string      `json:"entity_type"`
	Count          int64       `json:"count"`
	UniqueActors   int64       `json:"unique_actors"`
	LastOccurrence time.Time   `json:"last_occurrence"`
}

type ActorActivity struct {
	ActorID   int64  `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Count     int64  `json:"activity_count"`
}

type AuditSummary struct {
	PeriodDays int             `json:"period_days"`
	Actions    []ActionSummary `json:"summary"`
	MostActive []ActorActivity `json:"most_active_users"`
}

type TimelinePoint struct {
	Date   string      `json:"date"` // YYYY-MM-DD, UTC
	Action AuditAction `json:"action"`
	Count  int64       `json:"count"`
}

// StatsRepository answers read-only aggregates. A nil companyID means all
// companies.
type StatsRepository interface {
	Overview(ctx context.Context, companyID *int64, now time.Time) (*Overview, error)
	SalaryAnalytics(ctx context.Context, companyID *int64) (*SalaryAnalytics, error)
	DocumentStats(ctx context.Context, companyID *int64) (*DocumentStats, error)
	EmployeeStatus(ctx context.Context, companyID *int64) ([]Count, error)
	YearlyJoinings(ctx context.Context, companyID *int64, years int) ([]YearlyJoining, error)
	Leaves(ctx context.Context, companyID *int64) ([]LeaveEntry, error)
	NewJoinings(ctx context.Context, companyID *int64, since time.Time) ([]NewJoining, error)
	AuditSummary(ctx context.Context, companyID *int64, since time.Time) (*AuditSummary, error)
	ActivityTimeline(ctx context.Context, companyID *int64, since time.Time) ([]TimelinePoint, error)
}
