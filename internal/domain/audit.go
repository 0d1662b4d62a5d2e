package domain

import "time"

// AuditEntry is one append-only record of a state-changing operation.
// Entries are never mutated or deleted.
type AuditEntry struct {
	ID           string
	ActorID      *string // nil for system actions
	Action       string  // e.g. "review_created", "review_assigned"
	ResourceType string
	ResourceID   string
	OldValues    map[string]interface{}
	NewValues    map[string]interface{}
	Metadata     map[string]interface{}
	Origin       *string // caller IP / user agent
	CreatedAt    time.Time
}

// AuditFilter holds filter parameters for querying audit logs.
type AuditFilter struct {
	ActorID      *string
	Action       *string
	ResourceType *string
	ResourceID   *string
	Since        *time.Time
	Page         PageRequest
}
