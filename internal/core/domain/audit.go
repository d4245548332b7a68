package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is one entry in the audit trail, capturing the before/after state
// of an entity mutation as JSON snapshots.
type AuditLog struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityID"`
	Action    string          `json:"action"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	ActorID   string          `json:"actorID"`
	CreatedAt time.Time       `json:"createdAt"`
}
