package v1_test

import (
	"context"
	"io"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject a principal into the context for DoCtx
// ---------------------------------------------------------------------------

func int64p(v int64) *int64 { return &v }

func superAdmin() *domain.Principal {
	return &domain.Principal{UserID: 1, Email: "root@hrm.local", Name: "Root", Role: domain.RoleSuperAdmin, Active: true}
}

func member(role domain.Role, companyID int64) *domain.Principal {
	return &domain.Principal{UserID: 10, Email: "member@acme.test", Name: "Member", Role: role, CompanyID: int64p(companyID), Active: true}
}

func principalCtx(p *domain.Principal) context.Context {
	return middleware.WithPrincipal(context.Background(), p, "tok-"+string(p.Role))
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuth struct {
	loginFunc          func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	logoutFunc         func(ctx context.Context, p *domain.Principal, token string) error
	changePasswordFunc func(ctx context.Context, p *domain.Principal, current, next string) error
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuth) Logout(ctx context.Context, p *domain.Principal, token string) error {
	return m.logoutFunc(ctx, p, token)
}

func (m *mockAuth) ChangePassword(ctx context.Context, p *domain.Principal, current, next string) error {
	return m.changePasswordFunc(ctx, p, current, next)
}

// ---------------------------------------------------------------------------
// Mock CompanyService
// ---------------------------------------------------------------------------

type mockCompanies struct {
	listFunc   func(ctx context.Context, p *domain.Principal, q hr.CompanyQuery) (*hr.Page[*domain.Company], error)
	getFunc    func(ctx context.Context, p *domain.Principal, id int64) (*domain.Company, error)
	createFunc func(ctx context.Context, p *domain.Principal, in hr.CompanyInput) (*domain.Company, error)
	updateFunc func(ctx context.Context, p *domain.Principal, id int64, in hr.CompanyUpdate) (*domain.Company, error)
	deleteFunc func(ctx context.Context, p *domain.Principal, id int64) error
}

func (m *mockCompanies) List(ctx context.Context, p *domain.Principal, q hr.CompanyQuery) (*hr.Page[*domain.Company], error) {
	return m.listFunc(ctx, p, q)
}

func (m *mockCompanies) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.Company, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockCompanies) Create(ctx context.Context, p *domain.Principal, in hr.CompanyInput) (*domain.Company, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockCompanies) Update(ctx context.Context, p *domain.Principal, id int64, in hr.CompanyUpdate) (*domain.Company, error) {
	return m.updateFunc(ctx, p, id, in)
}

func (m *mockCompanies) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Mock UserService
// ---------------------------------------------------------------------------

type mockUsers struct {
	listFunc          func(ctx context.Context, p *domain.Principal, q hr.UserQuery) (*hr.Page[*domain.User], error)
	getFunc           func(ctx context.Context, p *domain.Principal, id int64) (*domain.User, error)
	createFunc        func(ctx context.Context, p *domain.Principal, in hr.UserInput) (*domain.User, error)
	updateFunc        func(ctx context.Context, p *domain.Principal, id int64, in hr.UserUpdate) (*domain.User, error)
	resetPasswordFunc func(ctx context.Context, p *domain.Principal, id int64, password string) error
	deleteFunc        func(ctx context.Context, p *domain.Principal, id int64) error
}

func (m *mockUsers) List(ctx context.Context, p *domain.Principal, q hr.UserQuery) (*hr.Page[*domain.User], error) {
	return m.listFunc(ctx, p, q)
}

func (m *mockUsers) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.User, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockUsers) Create(ctx context.Context, p *domain.Principal, in hr.UserInput) (*domain.User, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockUsers) Update(ctx context.Context, p *domain.Principal, id int64, in hr.UserUpdate) (*domain.User, error) {
	return m.updateFunc(ctx, p, id, in)
}

func (m *mockUsers) ResetPassword(ctx context.Context, p *domain.Principal, id int64, password string) error {
	return m.resetPasswordFunc(ctx, p, id, password)
}

func (m *mockUsers) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Mock EmployeeService
// ---------------------------------------------------------------------------

type transitionFunc func(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error)

type mockEmployees struct {
	listFunc         func(ctx context.Context, p *domain.Principal, q hr.EmployeeQuery) (*hr.Page[*hr.EmployeeView], error)
	getFunc          func(ctx context.Context, p *domain.Principal, id int64, reveal bool) (*hr.EmployeeView, error)
	createFunc       func(ctx context.Context, p *domain.Principal, in hr.EmployeeInput) (*hr.EmployeeView, error)
	updateFunc       func(ctx context.Context, p *domain.Principal, id int64, in hr.EmployeeUpdate) (*hr.EmployeeView, error)
	startLeaveFunc   transitionFunc
	endLeaveFunc     transitionFunc
	terminateFunc    func(ctx context.Context, p *domain.Principal, id int64, in hr.TerminationInput) (*hr.EmployeeView, error)
	reactivateFunc   transitionFunc
	leaveFunc        func(ctx context.Context, p *domain.Principal, id int64, in hr.LeaveInput) (*hr.EmployeeView, error)
	incrementFunc    func(ctx context.Context, p *domain.Principal, id int64, in hr.IncrementInput) (*hr.EmployeeView, error)
	deleteFunc       func(ctx context.Context, p *domain.Principal, id int64) error
	departmentsFunc  func(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error)
	designationsFunc func(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error)
}

func (m *mockEmployees) List(ctx context.Context, p *domain.Principal, q hr.EmployeeQuery) (*hr.Page[*hr.EmployeeView], error) {
	return m.listFunc(ctx, p, q)
}

func (m *mockEmployees) Get(ctx context.Context, p *domain.Principal, id int64, reveal bool) (*hr.EmployeeView, error) {
	return m.getFunc(ctx, p, id, reveal)
}

func (m *mockEmployees) Create(ctx context.Context, p *domain.Principal, in hr.EmployeeInput) (*hr.EmployeeView, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockEmployees) Update(ctx context.Context, p *domain.Principal, id int64, in hr.EmployeeUpdate) (*hr.EmployeeView, error) {
	return m.updateFunc(ctx, p, id, in)
}

func (m *mockEmployees) StartLeave(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error) {
	return m.startLeaveFunc(ctx, p, id)
}

func (m *mockEmployees) EndLeave(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error) {
	return m.endLeaveFunc(ctx, p, id)
}

func (m *mockEmployees) Terminate(ctx context.Context, p *domain.Principal, id int64, in hr.TerminationInput) (*hr.EmployeeView, error) {
	return m.terminateFunc(ctx, p, id, in)
}

func (m *mockEmployees) Reactivate(ctx context.Context, p *domain.Principal, id int64) (*hr.EmployeeView, error) {
	return m.reactivateFunc(ctx, p, id)
}

func (m *mockEmployees) AddLeaveRecord(ctx context.Context, p *domain.Principal, id int64, in hr.LeaveInput) (*hr.EmployeeView, error) {
	return m.leaveFunc(ctx, p, id, in)
}

func (m *mockEmployees) AddSalaryIncrement(ctx context.Context, p *domain.Principal, id int64, in hr.IncrementInput) (*hr.EmployeeView, error) {
	return m.incrementFunc(ctx, p, id, in)
}

func (m *mockEmployees) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	return m.deleteFunc(ctx, p, id)
}

func (m *mockEmployees) Departments(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error) {
	return m.departmentsFunc(ctx, p, companyID)
}

func (m *mockEmployees) Designations(ctx context.Context, p *domain.Principal, companyID *int64) ([]string, error) {
	return m.designationsFunc(ctx, p, companyID)
}

// ---------------------------------------------------------------------------
// Mock DocumentService
// ---------------------------------------------------------------------------

type mockDocuments struct {
	listFunc     func(ctx context.Context, p *domain.Principal, employeeID int64) ([]*domain.Document, error)
	uploadFunc   func(ctx context.Context, p *domain.Principal, employeeID int64, in hr.UploadInput) (*domain.Document, error)
	downloadFunc func(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, io.ReadCloser, error)
	verifyFunc   func(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, error)
	deleteFunc   func(ctx context.Context, p *domain.Principal, id int64) error
}

func (m *mockDocuments) List(ctx context.Context, p *domain.Principal, employeeID int64) ([]*domain.Document, error) {
	return m.listFunc(ctx, p, employeeID)
}

func (m *mockDocuments) Upload(ctx context.Context, p *domain.Principal, employeeID int64, in hr.UploadInput) (*domain.Document, error) {
	return m.uploadFunc(ctx, p, employeeID, in)
}

func (m *mockDocuments) Download(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, io.ReadCloser, error) {
	return m.downloadFunc(ctx, p, id)
}

func (m *mockDocuments) Verify(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, error) {
	return m.verifyFunc(ctx, p, id)
}

func (m *mockDocuments) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	return m.deleteFunc(ctx, p, id)
}

// ---------------------------------------------------------------------------
// Mock LogService
// ---------------------------------------------------------------------------

type mockLogs struct {
	activityFunc func(ctx context.Context, p *domain.Principal, q hr.ActivityQuery) (*hr.Page[*domain.AuditEntry], error)
	historyFunc  func(ctx context.Context, p *domain.Principal, entityType string, entityID int64) ([]*domain.AuditEntry, error)
	loginsFunc   func(ctx context.Context, p *domain.Principal, q hr.LoginQuery) (*hr.Page[*domain.LoginEvent], error)
}

func (m *mockLogs) Activity(ctx context.Context, p *domain.Principal, q hr.ActivityQuery) (*hr.Page[*domain.AuditEntry], error) {
	return m.activityFunc(ctx, p, q)
}

func (m *mockLogs) History(ctx context.Context, p *domain.Principal, entityType string, entityID int64) ([]*domain.AuditEntry, error) {
	return m.historyFunc(ctx, p, entityType, entityID)
}

func (m *mockLogs) Logins(ctx context.Context, p *domain.Principal, q hr.LoginQuery) (*hr.Page[*domain.LoginEvent], error) {
	return m.loginsFunc(ctx, p, q)
}

// ---------------------------------------------------------------------------
// Mock DashboardService
// ---------------------------------------------------------------------------

type mockDashboard struct {
	overviewFunc         func(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.Overview, error)
	salaryFunc           func(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.SalaryAnalytics, error)
	documentStatsFunc    func(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.DocumentStats, error)
	employeeStatusFunc   func(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.Count, error)
	yearlyJoiningsFunc   func(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.YearlyJoining, error)
	recentActivityFunc   func(ctx context.Context, p *domain.Principal, companyID *int64, limit int) ([]*domain.AuditEntry, error)
	leavesFunc           func(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.LeaveEntry, error)
	newJoiningsFunc      func(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.NewJoining, error)
	auditSummaryFunc     func(ctx context.Context, p *domain.Principal, companyID *int64, days int) (*domain.AuditSummary, error)
	activityTimelineFunc func(ctx context.Context, p *domain.Principal, companyID *int64, days int) ([]domain.TimelinePoint, error)
}

func (m *mockDashboard) Overview(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.Overview, error) {
	return m.overviewFunc(ctx, p, companyID)
}

func (m *mockDashboard) SalaryAnalytics(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.SalaryAnalytics, error) {
	return m.salaryFunc(ctx, p, companyID)
}

func (m *mockDashboard) DocumentStats(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.DocumentStats, error) {
	return m.documentStatsFunc(ctx, p, companyID)
}

func (m *mockDashboard) EmployeeStatus(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.Count, error) {
	return m.employeeStatusFunc(ctx, p, companyID)
}

func (m *mockDashboard) YearlyJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.YearlyJoining, error) {
	return m.yearlyJoiningsFunc(ctx, p, companyID)
}

func (m *mockDashboard) RecentActivity(ctx context.Context, p *domain.Principal, companyID *int64, limit int) ([]*domain.AuditEntry, error) {
	return m.recentActivityFunc(ctx, p, companyID, limit)
}

func (m *mockDashboard) Leaves(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.LeaveEntry, error) {
	return m.leavesFunc(ctx, p, companyID)
}

func (m *mockDashboard) NewJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.NewJoining, error) {
	return m.newJoiningsFunc(ctx, p, companyID)
}

func (m *mockDashboard) AuditSummary(ctx context.Context, p *domain.Principal, companyID *int64, days int) (*domain.AuditSummary, error) {
	return m.auditSummaryFunc(ctx, p, companyID, days)
}

func (m *mockDashboard) ActivityTimeline(ctx context.Context, p *domain.Principal, companyID *int64, days int) ([]domain.TimelinePoint, error) {
	return m.activityTimelineFunc(ctx, p, companyID, days)
}
