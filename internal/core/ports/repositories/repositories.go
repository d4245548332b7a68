package repositories

// RepositoryProvider aggregates every repository the service layer needs.
type RepositoryProvider struct {
	RecurringRepo RecurringRepositoryWithTx
	AuditRepo     AuditRepository
}
