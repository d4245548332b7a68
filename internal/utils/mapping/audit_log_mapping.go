package mapping

import (
	"github.com/propops/property_ops_backend/internal/core/domain"
	"github.com/propops/property_ops_backend/internal/models"
)

// ToModelAuditLog converts a domain AuditLog to a model AuditLog
func ToModelAuditLog(d domain.AuditLog) models.AuditLog {
	return models.AuditLog{
		ID:        d.ID,
		Entity:    d.Entity,
		EntityID:  d.EntityID,
		Action:    d.Action,
		Before:    []byte(d.Before),
		After:     []byte(d.After),
		ActorID:   d.ActorID,
		CreatedAt: d.CreatedAt,
	}
}
