package services

import "context"

// AuditSvcFacade records entity mutations to the audit trail. Recording is
// best-effort from the ledger engine's perspective: callers log failures and
// carry on, they never roll back committed ledger state over a lost audit
// entry.
type AuditSvcFacade interface {
	RecordAudit(ctx context.Context, entity, entityID, action string, before, after interface{}, actorID string) error
}
