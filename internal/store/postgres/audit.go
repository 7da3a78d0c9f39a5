package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

// AuditRepo is insert-only; the audit_log table rejects UPDATE and DELETE.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `id, actor_id, actor_name, company_id, action, entity_type, entity_id, entity_version,
	description, old_values, new_values, ip_address, user_agent, created_at`

func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal old values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: marshal new values: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, actor_id, actor_name, company_id, action, entity_type, entity_id, entity_version,
		     description, old_values, new_values, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.ActorID, nilIfEmpty(e.ActorName), e.CompanyID, e.Action, e.EntityType, e.EntityID, e.EntityVersion,
		e.Description, oldValues, newValues, nilIfEmpty(e.IPAddress), nilIfEmpty(e.UserAgent), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Append: %w", mapPostgresError(err))
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	var c conds
	if f.CompanyID != nil {
		c.add("company_id = " + c.arg(*f.CompanyID))
	}
	if f.Action != "" {
		c.add("action = " + c.arg(f.Action))
	}
	if f.EntityType != "" {
		c.add("entity_type = " + c.arg(f.EntityType))
	}
	if f.ActorID != nil {
		c.add("actor_id = " + c.arg(*f.ActorID))
	}
	if f.From != nil {
		c.add("created_at >= " + c.arg(*f.From))
	}
	if f.To != nil {
		c.add("created_at < " + c.arg(*f.To))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM audit_log`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: count: %w", err)
	}

	// ULIDs sort by creation time.
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log`+c.where()+` ORDER BY id DESC`+c.page(f.Page),
		c.args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditEntries(rows, "auditRepo.List")
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AuditRepo) History(ctx context.Context, entityType string, entityID int64) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY entity_version, id`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.History: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.History")
}

func marshalValues(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var actorName, ip, ua *string
		var oldValues, newValues []byte

		if err := rows.Scan(
			&e.ID, &e.ActorID, &actorName, &e.CompanyID, &e.Action, &e.EntityType, &e.EntityID, &e.EntityVersion,
			&e.Description, &oldValues, &newValues, &ip, &ua, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if len(oldValues) > 0 {
			if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
				return nil, fmt.Errorf("%s: unmarshal old values: %w", caller, err)
			}
		}
		if len(newValues) > 0 {
			if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
				return nil, fmt.Errorf("%s: unmarshal new values: %w", caller, err)
			}
		}
		e.ActorName = derefStr(actorName)
		e.IPAddress = derefStr(ip)
		e.UserAgent = derefStr(ua)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
