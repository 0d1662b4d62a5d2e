package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"docflow/internal/domain"
)

var _ domain.RuleRepository = (*RuleRepo)(nil)

// RuleRepo implements domain.RuleRepository using SQLite. Conditions are
// stored as a JSON TEXT column.
type RuleRepo struct {
	q querier
}

// NewRuleRepo creates a new RuleRepo.
func NewRuleRepo(db *sql.DB) *RuleRepo {
	return &RuleRepo{q: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *RuleRepo) WithTx(tx *sql.Tx) domain.RuleRepository {
	return &RuleRepo{q: tx}
}

const ruleColumns = `id, name, conditions, action, priority, active, times_applied, last_applied_at, created_at`

func scanRule(row interface{ Scan(...any) error }) (*domain.ApprovalRule, error) {
	var (
		rule          domain.ApprovalRule
		conditions    string
		active        int64
		lastAppliedAt sql.NullTime
	)
	err := row.Scan(&rule.ID, &rule.Name, &conditions, &rule.Action, &rule.Priority, &active,
		&rule.TimesApplied, &lastAppliedAt, &rule.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, err
	}
	rule.Active = active != 0
	rule.LastAppliedAt = timeFromNull(lastAppliedAt)
	return &rule, nil
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.ApprovalRule) (*domain.ApprovalRule, error) {
	created := *rule
	if created.ID == "" {
		created.ID = domain.NewID()
	}
	created.CreatedAt = time.Now().UTC()

	conditions, err := json.Marshal(created.Conditions)
	if err != nil {
		return nil, err
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO approval_rules (id, name, conditions, action, priority, active, times_applied, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		created.ID, created.Name, string(conditions), created.Action, created.Priority,
		boolToInt(created.Active), created.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &created, nil
}

func (r *RuleRepo) GetByID(ctx context.Context, id string) (*domain.ApprovalRule, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM approval_rules WHERE id = ?`, id)
	return scanRule(row)
}

func (r *RuleRepo) GetByName(ctx context.Context, name string) (*domain.ApprovalRule, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM approval_rules WHERE name = ?`, name)
	return scanRule(row)
}

func (r *RuleRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.ApprovalRule, int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM approval_rules`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM approval_rules ORDER BY priority DESC, id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rules []domain.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		rules = append(rules, *rule)
	}
	return rules, total, rows.Err()
}

// ListActive returns active rules in evaluation order: priority descending,
// rule ID as the deterministic tiebreak.
func (r *RuleRepo) ListActive(ctx context.Context) ([]domain.ApprovalRule, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM approval_rules WHERE active = 1 ORDER BY priority DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE approval_rules SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("approval rule %s not found", id)
	}
	return nil
}

// IncrementUsage bumps the rule's applied counter and stamps the time it
// last fired.
func (r *RuleRepo) IncrementUsage(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE approval_rules SET times_applied = times_applied + 1, last_applied_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("approval rule %s not found", id)
	}
	return nil
}
