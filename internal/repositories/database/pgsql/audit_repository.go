package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propops/property_ops_backend/internal/apperrors"
	"github.com/propops/property_ops_backend/internal/core/domain"
	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
	"github.com/propops/property_ops_backend/internal/utils/mapping"
)

// PgxAuditRepository persists audit log entries. It deliberately runs on the
// pool, not inside the ledger transaction: losing an audit entry must never
// roll back committed ledger state.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

// SaveAuditLog inserts one audit entry.
func (r *PgxAuditRepository) SaveAuditLog(ctx context.Context, entry domain.AuditLog) error {
	m := mapping.ToModelAuditLog(entry)
	query := `
		INSERT INTO audit_logs (id, entity, entity_id, action, before, after, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ID, m.Entity, m.EntityID, m.Action,
		m.Before, m.After, m.ActorID, m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert audit log for "+entry.EntityID, err)
	}
	return nil
}
