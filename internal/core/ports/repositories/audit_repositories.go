package repositories

import (
	"context"

	"github.com/propops/property_ops_backend/internal/core/domain"
)

// AuditRepository persists audit log entries. Audit writes run outside the
// ledger transaction; a failure here must never roll back ledger state.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, entry domain.AuditLog) error
}
