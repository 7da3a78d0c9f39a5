package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/hrm/internal/domain"
)

// mapPostgresError maps constraint violations to domain sentinels. Other
// errors are returned unchanged.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%s already exists: %w", uniqueSubject(pgErr.ConstraintName), domain.ErrConflict)

	case pgerrcode.ForeignKeyViolation:
		// Delete blocked by dependents, or insert referencing a missing row.
		if isRestrictViolation(pgErr) {
			return fmt.Errorf("%s: %w", pgErr.Detail, domain.ErrConflict)
		}
		return fmt.Errorf("%s: %w", pgErr.Detail, domain.ErrNotFound)

	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return fmt.Errorf("constraint %s: %w", pgErr.ConstraintName, domain.NewValidationError(checkField(pgErr), "violates "+pgErr.ConstraintName))

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("transaction conflict: %w", domain.ErrConflict)

	case pgerrcode.RaiseException:
		// Raised by the append-only trigger on audit_log.
		return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrForbidden)

	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pgErr.Code, pgErr.Message, err)
	}
}

func uniqueSubject(constraint string) string {
	switch constraint {
	case "companies_code_key":
		return "company code"
	case "users_email_key":
		return "email"
	case "employees_company_id_code_key":
		return "employee code"
	default:
		return "record"
	}
}

func isRestrictViolation(pgErr *pgconn.PgError) bool {
	return strings.HasPrefix(pgErr.Message, "update or delete on table")
}

func checkField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return pgErr.ConstraintName
}
