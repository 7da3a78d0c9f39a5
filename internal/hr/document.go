package hr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/storage"
)

type DocumentService struct {
	d Deps
}

func (s *DocumentService) employees() *EmployeeService { return &EmployeeService{d: s.d} }

func (s *DocumentService) List(ctx context.Context, p *domain.Principal, employeeID int64) ([]*domain.Document, error) {
	if err := auth.Authorize(p, auth.ViewDocuments); err != nil {
		return nil, err
	}
	e, err := s.employees().load(ctx, p, employeeID)
	if err != nil {
		return nil, err
	}

	docs, err := s.d.Documents.ListByEmployee(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("hr.DocumentService.List: %w", err)
	}
	return docs, nil
}

type UploadInput struct {
	Type     string
	Name     string
	Remarks  string
	FileName string
	MimeType string
	Body     io.Reader
}

// Upload stores the file first and removes it again if the metadata row
// cannot be written.
func (s *DocumentService) Upload(ctx context.Context, p *domain.Principal, employeeID int64, in UploadInput) (*domain.Document, error) {
	if err := auth.Authorize(p, auth.ManageDocuments); err != nil {
		return nil, err
	}
	e, err := s.employees().load(ctx, p, employeeID)
	if err != nil {
		return nil, err
	}

	in.Type = strings.TrimSpace(in.Type)
	in.Name = strings.TrimSpace(in.Name)
	in.FileName = path.Base(strings.ReplaceAll(strings.TrimSpace(in.FileName), `\`, "/"))
	verr := &domain.ValidationError{}
	if in.Type == "" {
		verr.Add("document_type", "is required")
	}
	if in.Body == nil {
		verr.Add("document", "file is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if in.Name == "" {
		in.Name = in.FileName
	}

	saved, err := s.d.Files.Save(path.Join("employees", strconv.FormatInt(e.ID, 10)), in.MimeType, in.Body)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, domain.NewValidationError("document", "file is too large")
	case errors.Is(err, storage.ErrUnsupportedType):
		return nil, domain.NewValidationError("document", "file type is not allowed")
	case err != nil:
		return nil, fmt.Errorf("hr.DocumentService.Upload: %w", err)
	}

	doc := &domain.Document{
		EmployeeID: e.ID,
		CompanyID:  e.CompanyID,
		Type:       in.Type,
		Name:       in.Name,
		FilePath:   saved.Path,
		FileName:   in.FileName,
		MimeType:   in.MimeType,
		Size:       saved.Size,
		Remarks:    strings.TrimSpace(in.Remarks),
		UploadedBy: &p.UserID,
	}
	if err := s.d.Documents.Create(ctx, doc); err != nil {
		if derr := s.d.Files.DeleteIfExists(saved.Path); derr != nil {
			log.Warn().Err(derr).Str("path", saved.Path).Msg("hr: failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("hr.DocumentService.Upload: %w", err)
	}

	ae := entry(p, domain.ActionUpload, domain.EntityDocument, doc.ID, &doc.CompanyID, "Document uploaded: "+doc.Name+" for "+e.Code)
	ae.EntityVersion = doc.Version
	ae.NewValues = audit.Snapshot(doc)
	s.d.Recorder.Record(ctx, ae)

	return doc, nil
}

func (s *DocumentService) load(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, error) {
	doc, err := s.d.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, hide(err, "document")
	}
	if err := auth.EnforceScope(p, &doc.CompanyID); err != nil {
		return nil, hide(err, "document")
	}
	return doc, nil
}

// Download opens the stored file. The caller must close the reader.
func (s *DocumentService) Download(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, io.ReadCloser, error) {
	if err := auth.Authorize(p, auth.ViewDocuments); err != nil {
		return nil, nil, err
	}
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}

	rc, size, err := s.d.Files.Open(doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("hr.DocumentService.Download: %w", err)
	}
	doc.Size = size

	ae := entry(p, domain.ActionDownload, domain.EntityDocument, doc.ID, &doc.CompanyID, "Document downloaded: "+doc.Name)
	ae.EntityVersion = doc.Version
	s.d.Recorder.Record(ctx, ae)
	return doc, rc, nil
}

func (s *DocumentService) Verify(ctx context.Context, p *domain.Principal, id int64) (*domain.Document, error) {
	if err := auth.Authorize(p, auth.ManageDocuments); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version, err := s.d.Documents.Verify(ctx, doc.ID, p.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("hr.DocumentService.Verify: %w", err)
	}
	doc.Verified = true
	doc.VerifiedBy = &p.UserID
	doc.VerifiedAt = &now
	doc.Version = version

	ae := entry(p, domain.ActionVerify, domain.EntityDocument, doc.ID, &doc.CompanyID, "Document verified: "+doc.Name)
	ae.EntityVersion = version
	s.d.Recorder.Record(ctx, ae)
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	if err := auth.Authorize(p, auth.ManageDocuments); err != nil {
		return err
	}
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.d.Documents.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("hr.DocumentService.Delete: %w", err)
	}
	if err := s.d.Files.DeleteIfExists(doc.FilePath); err != nil {
		log.Warn().Err(err).Int64("document_id", doc.ID).Msg("hr: failed to remove document file")
	}

	ae := entry(p, domain.ActionDelete, domain.EntityDocument, doc.ID, &doc.CompanyID, "Document deleted: "+doc.Name)
	ae.EntityVersion = doc.Version + 1
	ae.OldValues = audit.Snapshot(doc)
	s.d.Recorder.Record(ctx, ae)

	return nil
}
