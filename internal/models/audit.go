package models

import "time"

// AuditLog is the persisted shape of one audit trail entry.
type AuditLog struct {
	ID        string    `db:"id"`
	Entity    string    `db:"entity"`
	EntityID  string    `db:"entity_id"`
	Action    string    `db:"action"`
	Before    []byte    `db:"before"` // jsonb, nullable
	After     []byte    `db:"after"`  // jsonb, nullable
	ActorID   string    `db:"actor_id"`
	CreatedAt time.Time `db:"created_at"`
}
