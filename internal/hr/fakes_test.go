package hr_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/secrets"
	"github.com/gosuda/hrm/internal/storage"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memCompanies struct {
	mu        sync.Mutex
	next      int64
	rows      map[int64]*domain.Company
	employees *memEmployees
}

func (m *memCompanies) Create(_ context.Context, c *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.Code == c.Code {
			return fmt.Errorf("company code: %w", domain.ErrConflict)
		}
	}
	m.next++
	c.ID = m.next
	c.Version = 1
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCompanies) put(c domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Version == 0 {
		c.Version = 1
	}
	m.rows[c.ID] = &c
	if c.ID > m.next {
		m.next = c.ID
	}
}

func (m *memCompanies) GetByID(_ context.Context, id int64) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCompanies) Update(_ context.Context, c *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Version = cur.Version + 1
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCompanies) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memCompanies) List(_ context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Company
	for _, c := range m.rows {
		if f.OnlyID != nil && c.ID != *f.OnlyID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memCompanies) CountEmployees(_ context.Context, id int64) (int64, error) {
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	var n int64
	for _, e := range m.employees.rows {
		if e.CompanyID == id {
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*domain.User
}

func (m *memUsers) put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	m.rows[u.ID] = &u
	if u.ID > m.next {
		m.next = u.ID
	}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.Email == u.Email {
			return fmt.Errorf("email: %w", domain.ErrConflict)
		}
	}
	m.next++
	u.ID = m.next
	u.Version = 1
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Version = cur.Version + 1
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.PasswordHash = hash
	u.Version++
	return u.Version, nil
}

func (m *memUsers) RecordLoginFailure(context.Context, int64, int, time.Duration) (*time.Time, error) {
	return nil, errors.New("not used")
}

func (m *memUsers) RecordLoginSuccess(context.Context, int64, time.Time) error {
	return errors.New("not used")
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) List(_ context.Context, f domain.UserFilter) ([]*domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.rows {
		if f.CompanyID != nil && (u.CompanyID == nil || *u.CompanyID != *f.CompanyID) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// memEmployees mirrors the store's sequence allocation and version
// compare-and-swap.
type memEmployees struct {
	mu   sync.Mutex
	next int64
	seqs map[string]int
	rows map[int64]*domain.Employee
}

func cloneEmployee(e *domain.Employee) *domain.Employee {
	cp := *e
	if e.Termination != nil {
		t := *e.Termination
		cp.Termination = &t
	}
	cp.LeaveRecords = slices.Clone(e.LeaveRecords)
	cp.SalaryIncrements = slices.Clone(e.SalaryIncrements)
	return &cp
}

func (m *memEmployees) Create(_ context.Context, e *domain.Employee, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	year := e.CreatedAt.Year()
	key := fmt.Sprintf("%d/%d", e.CompanyID, year)
	m.seqs[key]++
	e.Code = domain.FormatEmployeeCode(prefix, year, m.seqs[key])
	m.next++
	e.ID = m.next
	e.Version = 1
	e.UpdatedAt = e.CreatedAt
	m.rows[e.ID] = cloneEmployee(e)
	return nil
}

func (m *memEmployees) put(e domain.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Version == 0 {
		e.Version = 1
	}
	m.rows[e.ID] = cloneEmployee(&e)
	if e.ID > m.next {
		m.next = e.ID
	}
}

func (m *memEmployees) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEmployee(e), nil
}

func (m *memEmployees) Update(_ context.Context, e *domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != e.Version {
		return fmt.Errorf("stale version: %w", domain.ErrConflict)
	}
	e.Version++
	e.UpdatedAt = time.Now().UTC()
	m.rows[e.ID] = cloneEmployee(e)
	return nil
}

func (m *memEmployees) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memEmployees) List(_ context.Context, f domain.EmployeeFilter) ([]*domain.Employee, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Employee
	for _, e := range m.rows {
		if f.CompanyID != nil && e.CompanyID != *f.CompanyID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		out = append(out, cloneEmployee(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memEmployees) Departments(_ context.Context, companyID *int64) ([]string, error) {
	return m.distinct(companyID, func(e *domain.Employee) string { return e.Department }), nil
}

func (m *memEmployees) Designations(_ context.Context, companyID *int64) ([]string, error) {
	return m.distinct(companyID, func(e *domain.Employee) string { return e.Designation }), nil
}

func (m *memEmployees) distinct(companyID *int64, col func(*domain.Employee) string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.rows {
		if companyID != nil && e.CompanyID != *companyID {
			continue
		}
		if v := col(e); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

type memDocuments struct {
	mu        sync.Mutex
	next      int64
	rows      map[int64]*domain.Document
	employees *memEmployees
}

func (m *memDocuments) Create(_ context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	d.ID = m.next
	d.Version = 1
	d.CreatedAt = time.Now().UTC()
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *memDocuments) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDocuments) ListByEmployee(_ context.Context, employeeID int64) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Document
	for _, d := range m.rows {
		if d.EmployeeID == employeeID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocuments) Verify(_ context.Context, id, by int64, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	d.Verified, d.VerifiedBy, d.VerifiedAt = true, &by, &at
	d.Version++
	return d.Version, nil
}

func (m *memDocuments) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memAudit is append-only: there is no way to change a stored entry.
// History returns entries in append order; ordering is the service's job.
type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	fail    error
}

func (m *memAudit) Append(_ context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) List(_ context.Context, f domain.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if f.CompanyID != nil && (e.CompanyID == nil || *e.CompanyID != *f.CompanyID) {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, &e)
	}
	total := int64(len(out))
	if f.Page.Limit > 0 {
		out = out[min(f.Page.Offset(), len(out)):min(f.Page.Offset()+f.Page.Limit, len(out))]
	}
	return out, total, nil
}

func (m *memAudit) History(_ context.Context, entityType string, entityID int64) ([]*domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, &e)
		}
	}
	return out, nil
}

// appendRaw stores an entry as-is, bypassing the recorder.
func (m *memAudit) appendRaw(e domain.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *memAudit) actions() []domain.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditAction, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

func (m *memAudit) last() domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

type memLogins struct {
	mu     sync.Mutex
	events []domain.LoginEvent
}

func (m *memLogins) Append(_ context.Context, e *domain.LoginEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memLogins) List(_ context.Context, f domain.LoginFilter) ([]*domain.LoginEvent, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.LoginEvent
	for _, e := range m.events {
		if f.CompanyID != nil && (e.CompanyID == nil || *e.CompanyID != *f.CompanyID) {
			continue
		}
		out = append(out, &e)
	}
	return out, int64(len(out)), nil
}

// stubStats records the company filter and window each aggregate was
// asked for and answers with fixed figures.
type stubStats struct {
	mu     sync.Mutex
	scopes []*int64
	since  time.Time
	years  int
	err    error
}

func (s *stubStats) record(companyID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, companyID)
}

func (s *stubStats) lastScope() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopes[len(s.scopes)-1]
}

func (s *stubStats) Overview(_ context.Context, companyID *int64, _ time.Time) (*domain.Overview, error) {
	s.record(companyID)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Overview{TotalEmployees: 2}, nil
}

func (s *stubStats) SalaryAnalytics(_ context.Context, companyID *int64) (*domain.SalaryAnalytics, error) {
	s.record(companyID)
	return &domain.SalaryAnalytics{}, s.err
}

func (s *stubStats) DocumentStats(_ context.Context, companyID *int64) (*domain.DocumentStats, error) {
	s.record(companyID)
	return &domain.DocumentStats{}, s.err
}

func (s *stubStats) EmployeeStatus(_ context.Context, companyID *int64) ([]domain.Count, error) {
	s.record(companyID)
	return []domain.Count{{Label: "ACTIVE", Count: 1}}, s.err
}

func (s *stubStats) YearlyJoinings(_ context.Context, companyID *int64, years int) ([]domain.YearlyJoining, error) {
	s.record(companyID)
	s.mu.Lock()
	s.years = years
	s.mu.Unlock()
	return nil, s.err
}

func (s *stubStats) Leaves(_ context.Context, companyID *int64) ([]domain.LeaveEntry, error) {
	s.record(companyID)
	return nil, s.err
}

func (s *stubStats) NewJoinings(_ context.Context, companyID *int64, since time.Time) ([]domain.NewJoining, error) {
	s.record(companyID)
	s.mu.Lock()
	s.since = since
	s.mu.Unlock()
	return nil, s.err
}

func (s *stubStats) AuditSummary(_ context.Context, companyID *int64, since time.Time) (*domain.AuditSummary, error) {
	s.record(companyID)
	s.mu.Lock()
	s.since = since
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &domain.AuditSummary{}, nil
}

func (s *stubStats) ActivityTimeline(_ context.Context, companyID *int64, since time.Time) ([]domain.TimelinePoint, error) {
	s.record(companyID)
	s.mu.Lock()
	s.since = since
	s.mu.Unlock()
	return nil, s.err
}

func (s *stubStats) window() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.since
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

// fixture has companies 3 ("ACME") and 9 ("GLOBEX"), employee 42 in company
// 3 and employee 43 in company 9.
type fixture struct {
	svc       *hr.Services
	codec     *secrets.Codec
	companies *memCompanies
	users     *memUsers
	employees *memEmployees
	documents *memDocuments
	audit     *memAudit
	logins    *memLogins
	stats     *stubStats
	fs        afero.Fs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := secrets.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	files, err := storage.New(fs, "/uploads", 1<<20)
	require.NoError(t, err)

	emps := &memEmployees{seqs: map[string]int{}, rows: map[int64]*domain.Employee{}}
	f := &fixture{
		codec:     codec,
		companies: &memCompanies{rows: map[int64]*domain.Company{}, employees: emps},
		users:     &memUsers{rows: map[int64]*domain.User{}},
		employees: emps,
		documents: &memDocuments{rows: map[int64]*domain.Document{}, employees: emps},
		audit:     &memAudit{},
		logins:    &memLogins{},
		stats:     &stubStats{},
		fs:        fs,
	}

	f.companies.put(domain.Company{ID: 3, Name: "Acme Ltd", Code: "ACME", Active: true})
	f.companies.put(domain.Company{ID: 9, Name: "Globex", Code: "GLOBEX", Active: true})

	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	f.employees.put(domain.Employee{ID: 42, CompanyID: 3, Code: "ACM-2024-0001", FirstName: "Asha", LastName: "Rao",
		EmploymentType: "FULL_TIME", DateOfJoining: joined, Status: domain.EmployeeActive, Department: "Engineering"})
	f.employees.put(domain.Employee{ID: 43, CompanyID: 9, Code: "GLO-2024-0001", FirstName: "Hank", LastName: "Scorpio",
		EmploymentType: "FULL_TIME", DateOfJoining: joined, Status: domain.EmployeeActive, Department: "Operations"})

	f.svc = hr.New(hr.Deps{
		Companies: f.companies,
		Users:     f.users,
		Employees: f.employees,
		Documents: f.documents,
		Audit:     f.audit,
		Logins:    f.logins,
		Stats:     f.stats,
		Files:     files,
		Codec:     codec,
		Recorder:  audit.NewRecorder(f.audit, nil, nil),
	})
	return f
}

func id(v int64) *int64 { return &v }

func principal(userID int64, role domain.Role, company *int64) *domain.Principal {
	return &domain.Principal{UserID: userID, Name: "user" + fmt.Sprint(userID), Role: role, CompanyID: company, Active: true}
}

func superAdmin() *domain.Principal { return principal(1, domain.RoleSuperAdmin, nil) }

func companyAdmin(company int64) *domain.Principal {
	return principal(2, domain.RoleCompanyAdmin, id(company))
}

func hrUser(company int64) *domain.Principal { return principal(4, domain.RoleHR, id(company)) }

func viewer(company int64) *domain.Principal { return principal(5, domain.RoleViewer, id(company)) }
