package services

// ServiceProvider aggregates every service the handler layer needs.
type ServiceProvider struct {
	RecurringSvc RecurringSvcFacade
	AuditSvc     AuditSvcFacade
}
