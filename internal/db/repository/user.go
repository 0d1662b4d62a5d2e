package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"docflow/internal/domain"
)

var _ domain.UserRepository = (*UserRepo)(nil)

// UserRepo implements domain.UserRepository using SQLite.
type UserRepo struct {
	q querier
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{q: db}
}

const userColumns = `id, name, email, role, active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u      domain.User
		role   string
		active int64
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &active, &u.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	u.Role = domain.Role(role)
	u.Active = active != 0
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	user := *u
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, string(user.Role), boolToInt(user.Active), user.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
	return scanUser(row)
}

func (r *UserRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("user %s not found", id)
	}
	return nil
}

// ListActiveByRoles returns active users holding any of the given roles,
// ordered by account creation time (then ID) so selection tiebreaks are
// deterministic.
func (r *UserRepo) ListActiveByRoles(ctx context.Context, roles []domain.Role) ([]domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roles))
	args := make([]any, len(roles))
	for i, role := range roles {
		placeholders[i] = "?"
		args[i] = string(role)
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE active = 1 AND role IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
