package domain

import (
	"context"
	"database/sql"
)

// DocumentRepository provides CRUD operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, d *Document) (*Document, error)
	GetByID(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, page PageRequest) ([]Document, int64, error)
	Update(ctx context.Context, d *Document) (*Document, error)
	SetStatus(ctx context.Context, id string, status string) error
}

// ReviewRepository provides operations for reviews.
//
// Transition applies a guarded update: the row is only written when its
// current status and reviewer still match the expected values, which is
// how concurrent assignment races resolve to a single winner. It returns
// false (and no error) when the guard no longer holds.
type ReviewRepository interface {
	WithTx(tx *sql.Tx) ReviewRepository

	Create(ctx context.Context, r *Review) (*Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	GetOpenByChange(ctx context.Context, documentID, changeID string) (*Review, error)
	Transition(ctx context.Context, r *Review, fromStatus ReviewStatus, fromReviewer *string) (bool, error)
	Queue(ctx context.Context, filter ReviewQueueFilter) ([]Review, int64, error)
	OpenCountsByReviewer(ctx context.Context) (map[string]int64, error)
	ListUnassignedPending(ctx context.Context, limit int) ([]Review, error)
}

// RuleRepository provides operations for approval rules.
type RuleRepository interface {
	WithTx(tx *sql.Tx) RuleRepository

	Create(ctx context.Context, r *ApprovalRule) (*ApprovalRule, error)
	GetByID(ctx context.Context, id string) (*ApprovalRule, error)
	GetByName(ctx context.Context, name string) (*ApprovalRule, error)
	List(ctx context.Context, page PageRequest) ([]ApprovalRule, int64, error)
	ListActive(ctx context.Context) ([]ApprovalRule, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementUsage(ctx context.Context, id string) error
}

// UserRepository provides operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context, page PageRequest) ([]User, int64, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListActiveByRoles(ctx context.Context, roles []Role) ([]User, error)
}

// AuditRepository provides operations for audit log entries.
type AuditRepository interface {
	WithTx(tx *sql.Tx) AuditRepository

	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
}

// MetricRepository provides operations for metric samples.
type MetricRepository interface {
	WithTx(tx *sql.Tx) MetricRepository

	Insert(ctx context.Context, m *MetricSample) error
	List(ctx context.Context, filter MetricFilter) ([]MetricSample, int64, error)
}
