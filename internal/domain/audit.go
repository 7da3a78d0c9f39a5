package domain

import (
	"context"
	"time"
)

type AuditAction string

const (
	ActionCreate   AuditAction = "CREATE"
	ActionUpdate   AuditAction = "UPDATE"
	ActionDelete   AuditAction = "DELETE"
	ActionLogin    AuditAction = "LOGIN"
	ActionLogout   AuditAction = "LOGOUT"
	ActionVerify   AuditAction = "VERIFY"
	ActionUpload   AuditAction = "UPLOAD"
	ActionExport   AuditAction = "EXPORT"
	ActionDownload AuditAction = "DOWNLOAD"
)

func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionLogout,
		ActionVerify, ActionUpload, ActionExport, ActionDownload:
		return true
	}
	return false
}

// Entity types used in audit entries.
const (
	EntityCompany  = "company"
	EntityUser     = "user"
	EntityEmployee = "employee"
	EntityDocument = "document"
	EntityAuth     = "auth"
)

// AuditEntry is an append-only record of a committed change.
type AuditEntry struct {
	ID            string         `json:"id"` // ULID
	ActorID       *int64         `json:"actor_id"`
	ActorName     string         `json:"actor_name,omitempty"`
	CompanyID     *int64         `json:"company_id"`
	Action        AuditAction    `json:"action"`
	EntityType    string         `json:"entity_type"`
	EntityID      *int64         `json:"entity_id"`
	EntityVersion int64          `json:"entity_version"`
	Description   string         `json:"description"`
	OldValues     map[string]any `json:"old_values,omitempty"`
	NewValues     map[string]any `json:"new_values,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AuditFilter struct {
	CompanyID  *int64
	Action     AuditAction
	EntityType string
	ActorID    *int64
	From       *time.Time
	To         *time.Time
	Page       Page
}

type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, f AuditFilter) ([]*AuditEntry, int64, error)
	// History returns the entries of one entity in commit order.
	History(ctx context.Context, entityType string, entityID int64) ([]*AuditEntry, error)
}

type LoginStatus string

const (
	LoginSuccess LoginStatus = "SUCCESS"
	LoginFailed  LoginStatus = "FAILED"
	LoginLocked  LoginStatus = "LOCKED"
)

type LoginEvent struct {
	ID            int64       `json:"id"`
	UserID        *int64      `json:"user_id"`
	CompanyID     *int64      `json:"company_id"`
	Email         string      `json:"email"`
	Status        LoginStatus `json:"status"`
	FailureReason string      `json:"failure_reason,omitempty"`
	IPAddress     string      `json:"ip_address,omitempty"`
	UserAgent     string      `json:"user_agent,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

type LoginFilter struct {
	CompanyID *int64
	Status    LoginStatus
	Email     string
	From      *time.Time
	To        *time.Time
	Page      Page
}

type LoginLogRepository interface {
	Append(ctx context.Context, e *LoginEvent) error
	List(ctx context.Context, f LoginFilter) ([]*LoginEvent, int64, error)
}
