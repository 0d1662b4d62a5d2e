package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"docflow/internal/domain"
)

var _ domain.MetricRepository = (*MetricRepo)(nil)

// MetricRepo implements domain.MetricRepository using SQLite. Samples are
// append-only.
type MetricRepo struct {
	q querier
}

// NewMetricRepo creates a new MetricRepo.
func NewMetricRepo(db *sql.DB) *MetricRepo {
	return &MetricRepo{q: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *MetricRepo) WithTx(tx *sql.Tx) domain.MetricRepository {
	return &MetricRepo{q: tx}
}

func (r *MetricRepo) Insert(ctx context.Context, m *domain.MetricSample) error {
	dimensions, err := jsonText(m.Dimensions)
	if err != nil {
		return err
	}

	id := m.ID
	if id == "" {
		id = domain.NewID()
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO system_metrics (id, name, value, dimensions, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, m.Name, m.Value, dimensions, time.Now().UTC())
	return mapDBError(err)
}

func (r *MetricRepo) List(ctx context.Context, filter domain.MetricFilter) ([]domain.MetricSample, int64, error) {
	where := []string{"1=1"}
	var args []any

	if filter.Name != nil {
		where = append(where, "name = ?")
		args = append(args, *filter.Name)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	base := ` FROM system_metrics WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, value, dimensions, created_at`+base+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var samples []domain.MetricSample
	for rows.Next() {
		var (
			m          domain.MetricSample
			dimensions sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &dimensions, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		if m.Dimensions, err = fromJSONText[map[string]string](dimensions); err != nil {
			return nil, 0, err
		}
		samples = append(samples, m)
	}
	return samples, total, rows.Err()
}
