package domain

import (
	"context"
	"time"
)

type Document struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	CompanyID  int64      `json:"company_id"` // owning company of the employee
	Type       string     `json:"document_type"`
	Name       string     `json:"document_name"`
	FilePath   string     `json:"-"`
	FileName   string     `json:"file_name"`
	MimeType   string     `json:"mime_type"`
	Size       int64      `json:"file_size"`
	Remarks    string     `json:"remarks,omitempty"`
	Verified   bool       `json:"verified"`
	VerifiedBy *int64     `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	UploadedBy *int64     `json:"uploaded_by,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
}

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id int64) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*Document, error)
	// Verify marks the document verified and returns the bumped version.
	Verify(ctx context.Context, id, verifiedBy int64, at time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
}
