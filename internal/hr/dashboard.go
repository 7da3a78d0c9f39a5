package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

const (
	maxPeriodDays       = 365
	auditSummaryDays    = 30
	timelineDays        = 7
	newJoiningWindow    = 30 * 24 * time.Hour
	yearlyJoiningsLimit = 5
)

// DashboardService serves read-only aggregates. Every figure is computed
// over the caller's company; the global role sees all companies unless it
// asks for one.
type DashboardService struct {
	d Deps
}

func (s *DashboardService) Overview(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.Overview, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	o, err := s.d.Stats.Overview(ctx, scope, time.Now())
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.Overview: %w", err)
	}
	return o, nil
}

func (s *DashboardService) SalaryAnalytics(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.SalaryAnalytics, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	a, err := s.d.Stats.SalaryAnalytics(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.SalaryAnalytics: %w", err)
	}
	return a, nil
}

func (s *DashboardService) DocumentStats(ctx context.Context, p *domain.Principal, companyID *int64) (*domain.DocumentStats, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	st, err := s.d.Stats.DocumentStats(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.DocumentStats: %w", err)
	}
	return st, nil
}

func (s *DashboardService) EmployeeStatus(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.Count, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	counts, err := s.d.Stats.EmployeeStatus(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.EmployeeStatus: %w", err)
	}
	return counts, nil
}

// YearlyJoinings covers the most recent five joining years.
func (s *DashboardService) YearlyJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.YearlyJoining, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	years, err := s.d.Stats.YearlyJoinings(ctx, scope, yearlyJoiningsLimit)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.YearlyJoinings: %w", err)
	}
	return years, nil
}

// RecentActivity returns the newest audit entries in scope.
func (s *DashboardService) RecentActivity(ctx context.Context, p *domain.Principal, companyID *int64, limit int) ([]*domain.AuditEntry, error) {
	scope, err := s.scope(p, auth.ViewDashboard, companyID)
	if err != nil {
		return nil, err
	}

	items, _, err := s.d.Audit.List(ctx, domain.AuditFilter{CompanyID: scope, Page: domain.NewPage(1, limit)})
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.RecentActivity: %w", err)
	}
	return items, nil
}

// Leaves lists every recorded leave in scope, newest first.
func (s *DashboardService) Leaves(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.LeaveEntry, error) {
	scope, err := s.scope(p, auth.ViewEmployees, companyID)
	if err != nil {
		return nil, err
	}

	leaves, err := s.d.Stats.Leaves(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.Leaves: %w", err)
	}
	return leaves, nil
}

// NewJoinings lists employees who joined in the last 30 days.
func (s *DashboardService) NewJoinings(ctx context.Context, p *domain.Principal, companyID *int64) ([]domain.NewJoining, error) {
	scope, err := s.scope(p, auth.ViewEmployees, companyID)
	if err != nil {
		return nil, err
	}

	from := calendarDay(time.Now().Add(-newJoiningWindow))
	joinings, err := s.d.Stats.NewJoinings(ctx, scope, from)
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.NewJoinings: %w", err)
	}
	return joinings, nil
}

// AuditSummary groups audit entries of the last days (default 30) by action
// and entity type.
func (s *DashboardService) AuditSummary(ctx context.Context, p *domain.Principal, companyID *int64, days int) (*domain.AuditSummary, error) {
	scope, err := s.scope(p, auth.ViewAuditSummary, companyID)
	if err != nil {
		return nil, err
	}
	days, err = periodDays(days, auditSummaryDays)
	if err != nil {
		return nil, err
	}

	sum, err := s.d.Stats.AuditSummary(ctx, scope, windowStart(days))
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.AuditSummary: %w", err)
	}
	sum.PeriodDays = days
	return sum, nil
}

// ActivityTimeline counts audit entries per UTC day and action over the
// last days (default 7).
func (s *DashboardService) ActivityTimeline(ctx context.Context, p *domain.Principal, companyID *int64, days int) ([]domain.TimelinePoint, error) {
	scope, err := s.scope(p, auth.ViewActivityLogs, companyID)
	if err != nil {
		return nil, err
	}
	days, err = periodDays(days, timelineDays)
	if err != nil {
		return nil, err
	}

	points, err := s.d.Stats.ActivityTimeline(ctx, scope, windowStart(days))
	if err != nil {
		return nil, fmt.Errorf("hr.DashboardService.ActivityTimeline: %w", err)
	}
	return points, nil
}

func (s *DashboardService) scope(p *domain.Principal, allowed auth.RoleSet, companyID *int64) (*int64, error) {
	if err := auth.Authorize(p, allowed); err != nil {
		return nil, err
	}
	return auth.CompanyFilter(p, companyID), nil
}

func periodDays(days, def int) (int, error) {
	if days == 0 {
		return def, nil
	}
	if days < 1 || days > maxPeriodDays {
		return 0, domain.NewValidationError("days", fmt.Sprintf("must be between 1 and %d", maxPeriodDays))
	}
	return days, nil
}

// windowStart is midnight UTC days-1 days ago, so the window spans days
// calendar days including today.
func windowStart(days int) time.Time {
	return calendarDay(time.Now().UTC().AddDate(0, 0, -(days - 1)))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
