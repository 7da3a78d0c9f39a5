// Package hr holds the business services behind the HTTP API. Every
// operation follows the same pipeline: authorize the principal's role, load
// the resource, check its company scope, apply the change and hand a
// post-commit audit entry to the recorder.
package hr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/secrets"
	"github.com/gosuda/hrm/internal/storage"
)

// AuditSink receives post-commit audit entries. It never fails the caller.
type AuditSink interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// FileStore persists uploaded document bytes.
type FileStore interface {
	Save(dir, mimeType string, r io.Reader) (*storage.Saved, error)
	Open(rel string) (io.ReadCloser, int64, error)
	DeleteIfExists(rel string) error
}

// Deps are the collaborators shared by all services.
type Deps struct {
	Companies domain.CompanyRepository
	Users     domain.UserRepository
	Employees domain.EmployeeRepository
	Documents domain.DocumentRepository
	Audit     domain.AuditRepository
	Logins    domain.LoginLogRepository
	Stats     domain.StatsRepository
	Files     FileStore
	Codec     *secrets.Codec
	Recorder  AuditSink
}

// Services groups the per-entity services.
type Services struct {
	Companies *CompanyService
	Users     *UserService
	Employees *EmployeeService
	Documents *DocumentService
	Logs      *LogService
	Dashboard *DashboardService
}

// New wires every service from d.
func New(d Deps) *Services {
	return &Services{
		Companies: &CompanyService{d: d},
		Users:     &UserService{d: d},
		Employees: &EmployeeService{d: d},
		Documents: &DocumentService{d: d},
		Logs:      &LogService{d: d},
		Dashboard: &DashboardService{d: d},
	}
}

// Page is a page of results with its position in the full set.
type Page[T any] struct {
	Items []T
	Info  domain.PageInfo
}

// hide folds "does not exist" and "exists but out of scope" into one
// indistinguishable not-found error.
func hide(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	return err
}

// entry starts an audit entry attributed to p.
func entry(p *domain.Principal, action domain.AuditAction, entityType string, entityID int64, companyID *int64, desc string) domain.AuditEntry {
	e := domain.AuditEntry{
		Action:      action,
		EntityType:  entityType,
		EntityID:    &entityID,
		CompanyID:   companyID,
		Description: desc,
	}
	if p != nil {
		e.ActorID = &p.UserID
		e.ActorName = p.Name
	}
	return e
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
