package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		RecurringRepo: newPgxRecurringRepository(dbPool),
		AuditRepo:     newPgxAuditRepository(dbPool),
	}
}
