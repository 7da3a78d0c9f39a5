package v1_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/hrm/internal/api/v1"
	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
)

func multipartBody(t *testing.T, fields map[string]string, fileName, mimeType, content string) (string, io.Reader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, fileName))
		h.Set("Content-Type", mimeType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return "Content-Type: " + w.FormDataContentType(), &buf
}

func TestUploadDocument(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDocumentRoutes(api, &mockDocuments{
			uploadFunc: func(_ context.Context, _ *domain.Principal, employeeID int64, in hr.UploadInput) (*domain.Document, error) {
				assert.Equal(t, int64(42), employeeID)
				assert.Equal(t, "OFFER_LETTER", in.Type)
				assert.Equal(t, "Offer", in.Name)
				assert.Equal(t, "offer.pdf", in.FileName)
				assert.Equal(t, "application/pdf", in.MimeType)
				body, err := io.ReadAll(in.Body)
				require.NoError(t, err)
				assert.Equal(t, "%PDF-1.7", string(body))
				return &domain.Document{ID: 5, EmployeeID: 42, Type: in.Type, Name: in.Name, FilePath: "employees/42/x.pdf"}, nil
			},
		}, 1<<20)

		ct, body := multipartBody(t, map[string]string{"document_type": "OFFER_LETTER", "document_name": "Offer"}, "offer.pdf", "application/pdf", "%PDF-1.7")
		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42/documents", ct, body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		assert.NotContains(t, resp.Body.String(), "employees/42/x.pdf")
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDocumentRoutes(api, &mockDocuments{}, 1<<20)

		ct, body := multipartBody(t, map[string]string{"document_type": "ID_PROOF"}, "", "", "")
		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42/documents", ct, body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "body.document")
	})

	t.Run("rejected_type", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDocumentRoutes(api, &mockDocuments{
			uploadFunc: func(context.Context, *domain.Principal, int64, hr.UploadInput) (*domain.Document, error) {
				return nil, domain.NewValidationError("document", "file type is not allowed")
			},
		}, 1<<20)

		ct, body := multipartBody(t, map[string]string{"document_type": "OTHER"}, "run.exe", "application/x-msdownload", "MZ")
		resp := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/employees/42/documents", ct, body)
		require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "file type is not allowed")
	})
}

func TestDownloadDocument(t *testing.T) {
	t.Parallel()

	t.Run("streams_file", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDocumentRoutes(api, &mockDocuments{
			downloadFunc: func(_ context.Context, _ *domain.Principal, id int64) (*domain.Document, io.ReadCloser, error) {
				assert.Equal(t, int64(5), id)
				return &domain.Document{ID: 5, FileName: "offer letter.pdf", MimeType: "application/pdf", Size: 8},
					io.NopCloser(strings.NewReader("%PDF-1.7")), nil
			},
		}, 1<<20)

		resp := api.GetCtx(principalCtx(member(domain.RoleViewer, 3)), "/documents/5/download")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="offer letter.pdf"`, resp.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.7", resp.Body.String())
	})

	t.Run("out_of_scope", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDocumentRoutes(api, &mockDocuments{
			downloadFunc: func(context.Context, *domain.Principal, int64) (*domain.Document, io.ReadCloser, error) {
				return nil, nil, fmt.Errorf("hr.DocumentService.Download: document: %w", domain.ErrNotFound)
			},
		}, 1<<20)

		resp := api.GetCtx(principalCtx(member(domain.RoleViewer, 3)), "/documents/5/download")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestVerifyAndDeleteDocument(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterDocumentRoutes(api, &mockDocuments{
		verifyFunc: func(_ context.Context, p *domain.Principal, id int64) (*domain.Document, error) {
			return &domain.Document{ID: id, Verified: true, VerifiedBy: &p.UserID}, nil
		},
		deleteFunc: func(context.Context, *domain.Principal, int64) error {
			return fmt.Errorf("hr.DocumentService.Delete: %w", domain.ErrForbidden)
		},
	}, 1<<20)

	ok := api.PostCtx(principalCtx(member(domain.RoleCompanyAdmin, 3)), "/documents/5/verify")
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), `"verified":true`)

	denied := api.DeleteCtx(principalCtx(member(domain.RoleHR, 3)), "/documents/5")
	assert.Equal(t, http.StatusForbidden, denied.Code)
}

func TestEntityHistory(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterLogRoutes(api, &mockLogs{
		historyFunc: func(_ context.Context, _ *domain.Principal, entityType string, id int64) ([]*domain.AuditEntry, error) {
			assert.Equal(t, domain.EntityEmployee, entityType)
			assert.Equal(t, int64(42), id)
			return []*domain.AuditEntry{{ID: "01JTESTHISTORY0000000000000", Action: domain.ActionCreate, EntityType: entityType}}, nil
		},
	})

	resp := api.GetCtx(principalCtx(member(domain.RoleAuditor, 3)), "/logs/history/employee/42")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"action":"CREATE"`)
}

func TestActivityLog_Filters(t *testing.T) {
	t.Parallel()

	var got hr.ActivityQuery
	_, api := humatest.New(t)
	v1.RegisterLogRoutes(api, &mockLogs{
		activityFunc: func(_ context.Context, _ *domain.Principal, q hr.ActivityQuery) (*hr.Page[*domain.AuditEntry], error) {
			got = q
			return &hr.Page[*domain.AuditEntry]{Info: q.Page.Info(0)}, nil
		},
	})

	resp := api.GetCtx(principalCtx(member(domain.RoleAuditor, 3)),
		"/logs/activity?action=EXPORT&entity_type=employee&from=2026-01-01T00:00:00Z")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.ActionExport, got.Action)
	assert.Equal(t, "employee", got.EntityType)
	require.NotNil(t, got.From)
	assert.Nil(t, got.To)
	assert.Nil(t, got.ActorID)

	bad := api.GetCtx(principalCtx(member(domain.RoleAuditor, 3)), "/logs/activity?action=PURGE")
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}
