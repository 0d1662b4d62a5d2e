package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"docflow/internal/domain"
)

var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implements domain.AuditRepository using SQLite. Rows are
// append-only; there is no update or delete path.
type AuditRepo struct {
	q querier
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{q: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *AuditRepo) WithTx(tx *sql.Tx) domain.AuditRepository {
	return &AuditRepo{q: tx}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	oldValues, err := jsonText(e.OldValues)
	if err != nil {
		return err
	}
	newValues, err := jsonText(e.NewValues)
	if err != nil {
		return err
	}
	metadata, err := jsonText(e.Metadata)
	if err != nil {
		return err
	}

	id := e.ID
	if id == "" {
		id = domain.NewID()
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, resource_type, resource_id, old_values, new_values, metadata, origin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullStr(e.ActorID), e.Action, e.ResourceType, e.ResourceID,
		oldValues, newValues, metadata, nullStr(e.Origin), time.Now().UTC())
	return mapDBError(err)
}

const auditColumns = `id, actor_id, action, resource_type, resource_id, old_values, new_values, metadata, origin, created_at`

func scanAuditEntry(row interface{ Scan(...any) error }) (*domain.AuditEntry, error) {
	var (
		e         domain.AuditEntry
		actorID   sql.NullString
		oldValues sql.NullString
		newValues sql.NullString
		metadata  sql.NullString
		origin    sql.NullString
	)
	err := row.Scan(&e.ID, &actorID, &e.Action, &e.ResourceType, &e.ResourceID,
		&oldValues, &newValues, &metadata, &origin, &e.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	e.ActorID = strFromNull(actorID)
	e.Origin = strFromNull(origin)
	if e.OldValues, err = fromJSONText[map[string]interface{}](oldValues); err != nil {
		return nil, err
	}
	if e.NewValues, err = fromJSONText[map[string]interface{}](newValues); err != nil {
		return nil, err
	}
	if e.Metadata, err = fromJSONText[map[string]interface{}](metadata); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	where := []string{"1=1"}
	var args []any

	if filter.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, *filter.ActorID)
	}
	if filter.Action != nil {
		where = append(where, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.ResourceType != nil {
		where = append(where, "resource_type = ?")
		args = append(args, *filter.ResourceType)
	}
	if filter.ResourceID != nil {
		where = append(where, "resource_id = ?")
		args = append(args, *filter.ResourceID)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	base := ` FROM audit_logs WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+auditColumns+base+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}
