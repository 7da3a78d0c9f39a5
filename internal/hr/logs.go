package hr

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

type LogService struct {
	d Deps
}

type ActivityQuery struct {
	CompanyID  *int64
	Action     domain.AuditAction
	EntityType string
	ActorID    *int64
	From       *time.Time
	To         *time.Time
	Page       domain.Page
}

// Activity lists audit entries, newest first, within the caller's scope.
func (s *LogService) Activity(ctx context.Context, p *domain.Principal, q ActivityQuery) (*Page[*domain.AuditEntry], error) {
	if err := auth.Authorize(p, auth.ViewActivityLogs); err != nil {
		return nil, err
	}
	if q.Action != "" && !q.Action.Valid() {
		return nil, domain.NewValidationError("action", "is not a valid action")
	}

	items, total, err := s.d.Audit.List(ctx, domain.AuditFilter{
		CompanyID:  auth.CompanyFilter(p, q.CompanyID),
		Action:     q.Action,
		EntityType: q.EntityType,
		ActorID:    q.ActorID,
		From:       q.From,
		To:         q.To,
		Page:       q.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("hr.LogService.Activity: %w", err)
	}
	return &Page[*domain.AuditEntry]{Items: items, Info: q.Page.Info(total)}, nil
}

// History returns the audit trail of one entity in commit order. The
// entity must still exist and be in scope; deleted entities' trails remain
// reachable through Activity.
func (s *LogService) History(ctx context.Context, p *domain.Principal, entityType string, entityID int64) ([]*domain.AuditEntry, error) {
	if err := auth.Authorize(p, auth.ViewActivityLogs); err != nil {
		return nil, err
	}

	var err error
	switch entityType {
	case domain.EntityEmployee:
		_, err = (&EmployeeService{d: s.d}).load(ctx, p, entityID)
	case domain.EntityDocument:
		_, err = (&DocumentService{d: s.d}).load(ctx, p, entityID)
	case domain.EntityCompany:
		_, err = (&CompanyService{d: s.d}).load(ctx, p, entityID)
	case domain.EntityUser:
		_, err = (&UserService{d: s.d}).load(ctx, p, entityID)
	default:
		return nil, domain.NewValidationError("entity_type", "is not a known entity type")
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.d.Audit.History(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("hr.LogService.History: %w", err)
	}
	// Entity version is the commit order; ids only break ties.
	slices.SortStableFunc(entries, func(a, b *domain.AuditEntry) int {
		if c := cmp.Compare(a.EntityVersion, b.EntityVersion); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return entries, nil
}

type LoginQuery struct {
	CompanyID *int64
	Status    domain.LoginStatus
	Email     string
	From      *time.Time
	To        *time.Time
	Page      domain.Page
}

// Logins lists login attempts. Company admins see attempts attributed to
// their company only.
func (s *LogService) Logins(ctx context.Context, p *domain.Principal, q LoginQuery) (*Page[*domain.LoginEvent], error) {
	if err := auth.Authorize(p, auth.ViewLoginLogs); err != nil {
		return nil, err
	}

	items, total, err := s.d.Logins.List(ctx, domain.LoginFilter{
		CompanyID: auth.CompanyFilter(p, q.CompanyID),
		Status:    q.Status,
		Email:     q.Email,
		From:      q.From,
		To:        q.To,
		Page:      q.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("hr.LogService.Logins: %w", err)
	}
	return &Page[*domain.LoginEvent]{Items: items, Info: q.Page.Info(total)}, nil
}
