package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hrm/internal/domain"
)

type Store struct {
	pool      *pgxpool.Pool
	companies *CompanyRepo
	users     *UserRepo
	employees *EmployeeRepo
	documents *DocumentRepo
	audit     *AuditRepo
	logins    *LoginLogRepo
	stats     *StatsRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		companies: NewCompanyRepo(pool),
		users:     NewUserRepo(pool),
		employees: NewEmployeeRepo(pool),
		documents: NewDocumentRepo(pool),
		audit:     NewAuditRepo(pool),
		logins:    NewLoginLogRepo(pool),
		stats:     NewStatsRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity for /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Companies() domain.CompanyRepository  { return s.companies }
func (s *Store) Users() domain.UserRepository         { return s.users }
func (s *Store) Employees() domain.EmployeeRepository { return s.employees }
func (s *Store) Documents() domain.DocumentRepository { return s.documents }
func (s *Store) Audit() domain.AuditRepository        { return s.audit }
func (s *Store) LoginLogs() domain.LoginLogRepository { return s.logins }
func (s *Store) Stats() domain.StatsRepository        { return s.stats }
