package v1

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

// multipartOverhead is allowed on top of the file ceiling for boundaries
// and the form's text fields.
const multipartOverhead = 64 << 10

type DocumentIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Document ID"`
}

type DocumentOutput struct {
	Body *domain.Document
}

type DocumentListOutput struct {
	Body []*domain.Document
}

type UploadDocumentInput struct {
	ID      int64 `path:"id" minimum:"1" doc:"Employee ID"`
	RawBody multipart.Form
}

// RegisterDocumentRoutes wires document upload, download and verification.
// maxUpload is the file size ceiling enforced by the store; the request body
// limit is derived from it.
func RegisterDocumentRoutes(api huma.API, svc DocumentService, maxUpload int64) {
	huma.Register(api, huma.Operation{
		OperationID: "list-employee-documents",
		Method:      http.MethodGet,
		Path:        "/employees/{id}/documents",
		Summary:     "List an employee's documents",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *EmployeeIDInput) (*DocumentListOutput, error) {
		docs, err := svc.List(ctx, middleware.PrincipalFromContext(ctx), input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		if docs == nil {
			docs = []*domain.Document{}
		}
		return &DocumentListOutput{Body: docs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "upload-employee-document",
		Method:        http.MethodPost,
		Path:          "/employees/{id}/documents",
		Summary:       "Upload a document",
		Description:   "multipart/form-data with a `document` file and `document_type`, `document_name`, `remarks` fields.",
		Tags:          []string{"Documents"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxUpload + multipartOverhead,
	}, func(ctx context.Context, input *UploadDocumentInput) (*DocumentOutput, error) {
		files := input.RawBody.File["document"]
		if len(files) == 0 {
			return nil, huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
				Location: "body.document",
				Message:  "file is required",
			})
		}
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return nil, huma.Error400BadRequest("unreadable upload")
		}
		defer f.Close()

		doc, err := svc.Upload(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.UploadInput{
			Type:     formValue(input.RawBody, "document_type"),
			Name:     formValue(input.RawBody, "document_name"),
			Remarks:  formValue(input.RawBody, "remarks"),
			FileName: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Body:     f,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &DocumentOutput{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "download-document",
		Method:      http.MethodGet,
		Path:        "/documents/{id}/download",
		Summary:     "Download a document",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *DocumentIDInput) (*huma.StreamResponse, error) {
		doc, rc, err := svc.Download(ctx, middleware.PrincipalFromContext(ctx), input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &huma.StreamResponse{Body: func(hctx huma.Context) {
			defer rc.Close()
			hctx.SetHeader("Content-Type", doc.MimeType)
			hctx.SetHeader("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
			if doc.Size > 0 {
				hctx.SetHeader("Content-Length", strconv.FormatInt(doc.Size, 10))
			}
			hctx.SetStatus(http.StatusOK)
			if _, err := io.Copy(hctx.BodyWriter(), rc); err != nil {
				log.Ctx(ctx).Warn().Err(err).Int64("document_id", doc.ID).Msg("document stream interrupted")
			}
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "verify-document",
		Method:      http.MethodPost,
		Path:        "/documents/{id}/verify",
		Summary:     "Mark a document verified",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *DocumentIDInput) (*DocumentOutput, error) {
		doc, err := svc.Verify(ctx, middleware.PrincipalFromContext(ctx), input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &DocumentOutput{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-document",
		Method:        http.MethodDelete,
		Path:          "/documents/{id}",
		Summary:       "Delete a document",
		Tags:          []string{"Documents"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DocumentIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, middleware.PrincipalFromContext(ctx), input.ID); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})
}

func formValue(form multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
