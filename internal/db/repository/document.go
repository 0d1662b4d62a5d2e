package repository

import (
	"context"
	"database/sql"
	"time"

	"docflow/internal/domain"
)

var _ domain.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implements domain.DocumentRepository using SQLite.
type DocumentRepo struct {
	q querier
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{q: db}
}

func (r *DocumentRepo) Create(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	now := time.Now().UTC()
	doc := *d
	if doc.ID == "" {
		doc.ID = domain.NewID()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentActive
	}
	if doc.CurrentVersion <= 0 {
		doc.CurrentVersion = 1
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO documents (id, title, doc_type, source_ref, current_version, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.DocType, doc.SourceRef, doc.CurrentVersion, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &doc, nil
}

const documentColumns = `id, title, doc_type, source_ref, current_version, status, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.Title, &d.DocType, &d.SourceRef, &d.CurrentVersion, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &d, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

func (r *DocumentRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Document, int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *d)
	}
	return docs, total, rows.Err()
}

func (r *DocumentRepo) Update(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`UPDATE documents SET title = ?, doc_type = ?, source_ref = ?, current_version = ?, updated_at = ?
		 WHERE id = ?`,
		d.Title, d.DocType, d.SourceRef, d.CurrentVersion, now, d.ID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("document %s not found", d.ID)
	}
	return r.GetByID(ctx, d.ID)
}

func (r *DocumentRepo) SetStatus(ctx context.Context, id string, status string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("document %s not found", id)
	}
	return nil
}
