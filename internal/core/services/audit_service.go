package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propops/property_ops_backend/internal/core/domain"
	portsrepo "github.com/propops/property_ops_backend/internal/core/ports/repositories"
	portssvc "github.com/propops/property_ops_backend/internal/core/ports/services"
)

// auditService persists audit trail entries with JSON before/after snapshots.
type auditService struct {
	auditRepo portsrepo.AuditRepository
}

// NewAuditService creates the audit recording service.
func NewAuditService(auditRepo portsrepo.AuditRepository) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// RecordAudit marshals the before/after states and saves one audit entry.
func (s *auditService) RecordAudit(ctx context.Context, entity, entityID, action string, before, after interface{}, actorID string) error {
	entry := domain.AuditLog{
		ID:        uuid.NewString(),
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}

	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("failed to marshal audit before-state: %w", err)
		}
		entry.Before = raw
	}
	if after != nil {
		raw, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("failed to marshal audit after-state: %w", err)
		}
		entry.After = raw
	}

	return s.auditRepo.SaveAuditLog(ctx, entry)
}
