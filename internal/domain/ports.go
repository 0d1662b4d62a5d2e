package domain

import (
	"context"
	"database/sql"
)

// TxBeginner starts write transactions. Satisfied by *sql.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ReviewEvent is the plain payload handed to the Notifier after a
// transition commits.
type ReviewEvent struct {
	ReviewID    string
	DocumentID  string
	ChangeID    string
	Status      ReviewStatus
	Priority    int
	ImpactScore int
	ReviewerID  *string
	Decision    *string
}

// Notifier receives workflow events for downstream delivery. Calls happen
// after the transition commits and must return quickly; delivery failures
// never affect the transition outcome.
type Notifier interface {
	ReviewCreated(ctx context.Context, ev ReviewEvent)
	ReviewAssigned(ctx context.Context, ev ReviewEvent)
	ReviewCompleted(ctx context.Context, ev ReviewEvent)
}
