package v1

import (
	"context"
	"io"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
)

// AuthService abstracts login and session operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, p *domain.Principal, token string) error
	ChangePassword(ctx context.Context, p *domain.Principal, current, next string) error
}

// CompanyService is satisfied by *hr.CompanyService.
type CompanyService interface {
	List(ctx context.Context, p *domain.Principal, q hr.CompanyQuery) (*hr.Page[*domain.Company], error)
	Get(ctx context.Context, p *domain.Principal, id int64) (*domain.Company, error)
	Create(ctx context.Context, p *domain.Principal, in hr.CompanyInput) (*domain.Company, error)
	Update(ctx context.Context, p *domain.Principal, id int64, in hr.CompanyUpdate) (*domain.Company, error)
	Delete(ctx context.Context, p *domain.Principal, id int64) error
}

// UserService is satisfied by *hr.UserService.
type UserService interface {
	List(ctx context.Context, p *domain.Principal, q hr.UserQuery) (*hr.Page[*domain.User], error)
	Get(ctx context.Context, p *domain.Principal, id int64) (*domain.User, error)
	Create(ctx context.Context, p *domain.Principal, in hr.UserInput) (*domain.User, error)
	Update(ctx context.Context, p *domain.Principal, id int64, in hr.UserUpdate) (*domain.User, error)
	ResetPassword(ctx context.Context, p *domain.Principal, id int64, password string) error
	Delete(ctx context.Context, p *domain.Principal, id int64) error
}

// EmployeeService is satisfied by *hr.EmployeeService.
type EmployeeService interface {
	List(ctx context.Context, p *domain.Principal, q hr.EmployeeQuery) (*hr.Page[*hr.EmployeeView], error)
	Get(ctx context.Context, p *domain.Principal, id int64, reveal bool) (*hr.EmployeeView, error)
	Create(ctx context.Context, p *domain.Principal, in hr.EmployeeInput) (*hr.EmployeeView, error)
	Update(ctx context.Context, p *domain.Principal, id int64, in hr.EmployeeUpdate) (*hr.EmployeeView, error)
	StartLeave(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error)
	EndLeave(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error)
	Terminate(ctx context.Context, p *domain.Principal, id int64, in hr.TerminationInput) (*hr.EmployeeView, error)
	Reactivate(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error)
	AddLeaveRecord(ctx context.Context, p *domain.Principal, id int64, in hr.LeaveInput) (*hr.EmployeeView, error)
	AddSalaryIncrement(ctx context.Context, p *domain.Principal, id int64, in hr.IncrementInput) (*hr.EmployeeView, error)
	Delete(ctx context.Context, p *domain.Principal, id int64) error
	Departments(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error)
	Designations(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error)
}

// DocumentService is satisfied by *hr.DocumentService.
type DocumentService interface {
	List(ctx context.Context, p *domain.Principal, employeeID int64) ([]*domain.Document, error)
	Upload(ctx context.Context, p *domain.Principal, employeeID int64, in hr.UploadInput) (*domain.Document, error)
	Download(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, io.ReadCloser, error)
	Verify(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, error)
	Delete(ctx context.Context, p *domain.Principal, id int64) error
}

// LogService is satisfied by *hr.LogService.
type LogService interface {
	Activity(ctx context.Context, p *domain.Principal, q hr.ActivityQuery) (*hr.Page[*domain.AuditEntry], error)
	History(ctx context.Context, p *domain.Principal, entityType string, entityID int64) ([]*domain.AuditEntry, error)
	Logins(ctx context.Context, p *domain.Principal, q hr.LoginQuery) (*hr.Page[*domain.LoginEvent], error)
}

// DashboardService is satisfied by *hr.DashboardService.
type DashboardService interface {
	Overview(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.Overview, error)
	SalaryAnalytics(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.SalaryAnalytics, error)
	DocumentStats(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.DocumentStats, error)
	EmployeeStatus(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.Count, error)
	YearlyJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.YearlyJoining, error)
	RecentActivity(ctx context.Context, p *domain.Principal, companyID *int64, limit int) ([]*domain.AuditEntry, error)
	Leaves(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.LeaveEntry, error)
	NewJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.NewJoining, error)
	AuditSummary(ctx context.Context, p *domain.Principal, companyID *int64, days int) (*domain.AuditSummary, error)
	ActivityTimeline(ctx context.Context, p *domain.Principal, companyID *int64, days int) ([]domain.TimelinePoint, error)
}
