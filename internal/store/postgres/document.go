package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

const documentColumns = `d.id, d.employee_id, e.company_id, d.document_type, d.document_name, d.file_path, d.file_name,
	d.mime_type, d.file_size, d.remarks, d.verified, d.verified_by, d.verified_at, d.uploaded_by, d.version, d.created_at`

func (r *DocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO employee_documents (employee_id, document_type, document_name, file_path, file_name, mime_type, file_size, remarks, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, version, created_at`,
		d.EmployeeID, d.Type, d.Name, d.FilePath, d.FileName, d.MimeType, d.Size, nilIfEmpty(d.Remarks), d.UploadedBy,
	).Scan(&d.ID, &d.Version, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", mapPostgresError(err))
	}

	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+`
		 FROM employee_documents d JOIN employees e ON e.id = d.employee_id
		 WHERE d.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}

	return d, nil
}

func (r *DocumentRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+`
		 FROM employee_documents d JOIN employees e ON e.id = d.employee_id
		 WHERE d.employee_id = $1
		 ORDER BY d.created_at DESC, d.id DESC`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListByEmployee: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("documentRepo.ListByEmployee: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documentRepo.ListByEmployee: rows: %w", err)
	}

	return docs, nil
}

func (r *DocumentRepo) Verify(ctx context.Context, id, verifiedBy int64, at time.Time) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx,
		`UPDATE employee_documents SET verified = TRUE, verified_by = $1, verified_at = $2, version = version + 1
		 WHERE id = $3
		 RETURNING version`,
		verifiedBy, at, id,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("documentRepo.Verify: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("documentRepo.Verify: %w", err)
	}

	return version, nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employee_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("documentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var remarks *string

	err := row.Scan(&d.ID, &d.EmployeeID, &d.CompanyID, &d.Type, &d.Name, &d.FilePath, &d.FileName,
		&d.MimeType, &d.Size, &remarks, &d.Verified, &d.VerifiedBy, &d.VerifiedAt, &d.UploadedBy, &d.Version, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	d.Remarks = derefStr(remarks)

	return &d, nil
}
