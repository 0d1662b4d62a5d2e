package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"docflow/internal/domain"
)

var _ domain.ReviewRepository = (*ReviewRepo)(nil)

// ReviewRepo implements domain.ReviewRepository using SQLite.
type ReviewRepo struct {
	q querier
}

// NewReviewRepo creates a new ReviewRepo.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{q: db}
}

// WithTx returns a copy of the repo bound to the given transaction.
func (r *ReviewRepo) WithTx(tx *sql.Tx) domain.ReviewRepository {
	return &ReviewRepo{q: tx}
}

const reviewColumns = `id, document_id, change_id, proposed_version, status, priority, impact_score,
	ai_confidence, reviewer_id, assigned_at, reviewed_at, decision, feedback, modifications,
	auto_approval_rule_id, created_at, updated_at`

const reviewColumnsQualified = `r.id, r.document_id, r.change_id, r.proposed_version, r.status, r.priority,
	r.impact_score, r.ai_confidence, r.reviewer_id, r.assigned_at, r.reviewed_at, r.decision, r.feedback,
	r.modifications, r.auto_approval_rule_id, r.created_at, r.updated_at`

func scanReview(row interface{ Scan(...any) error }) (*domain.Review, error) {
	var (
		rv           domain.Review
		status       string
		aiConfidence sql.NullInt64
		reviewerID   sql.NullString
		assignedAt   sql.NullTime
		reviewedAt   sql.NullTime
		decision     sql.NullString
		feedback     sql.NullString
		mods         sql.NullString
		ruleID       sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.DocumentID, &rv.ChangeID, &rv.ProposedVersion, &status, &rv.Priority,
		&rv.ImpactScore, &aiConfidence, &reviewerID, &assignedAt, &reviewedAt, &decision, &feedback,
		&mods, &ruleID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	rv.Status = domain.ReviewStatus(status)
	rv.AIConfidence = intFromNull(aiConfidence)
	rv.ReviewerID = strFromNull(reviewerID)
	rv.AssignedAt = timeFromNull(assignedAt)
	rv.ReviewedAt = timeFromNull(reviewedAt)
	rv.Decision = strFromNull(decision)
	rv.Feedback = strFromNull(feedback)
	rv.AutoApprovalRuleID = strFromNull(ruleID)
	rv.Modifications, err = fromJSONText[map[string]interface{}](mods)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create inserts a new review. A UNIQUE violation on the open-review index
// is returned as a ConflictError so intake can resolve it by re-fetch.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) (*domain.Review, error) {
	now := time.Now().UTC()
	review := *rv
	if review.ID == "" {
		review.ID = domain.NewID()
	}
	if review.Status == "" {
		review.Status = domain.ReviewPending
	}
	review.CreatedAt = now
	review.UpdatedAt = now

	mods, err := jsonText(review.Modifications)
	if err != nil {
		return nil, err
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO reviews (id, document_id, change_id, proposed_version, status, priority, impact_score,
			ai_confidence, reviewer_id, assigned_at, reviewed_at, decision, feedback, modifications,
			auto_approval_rule_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.DocumentID, review.ChangeID, review.ProposedVersion, string(review.Status),
		review.Priority, review.ImpactScore, nullInt(review.AIConfidence), nullStr(review.ReviewerID),
		nullTime(review.AssignedAt), nullTime(review.ReviewedAt), nullStr(review.Decision),
		nullStr(review.Feedback), mods, nullStr(review.AutoApprovalRuleID),
		review.CreatedAt, review.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &review, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	return scanReview(row)
}

// GetOpenByChange returns the non-terminal review for a (document, change)
// pair, or NotFoundError when none exists.
func (r *ReviewRepo) GetOpenByChange(ctx context.Context, documentID, changeID string) (*domain.Review, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE document_id = ? AND change_id = ? AND status IN ('pending', 'in_review')`,
		documentID, changeID)
	return scanReview(row)
}

// Transition applies a guarded update of the review's mutable fields. The
// write only happens when the row's current status and reviewer still match
// the expected values; it returns false when the guard no longer holds,
// which is how a concurrent-assignment loser observes its loss.
func (r *ReviewRepo) Transition(ctx context.Context, rv *domain.Review, fromStatus domain.ReviewStatus, fromReviewer *string) (bool, error) {
	mods, err := jsonText(rv.Modifications)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`UPDATE reviews SET status = ?, priority = ?, reviewer_id = ?, assigned_at = ?, reviewed_at = ?,
			decision = ?, feedback = ?, modifications = ?, auto_approval_rule_id = ?, updated_at = ?
		 WHERE id = ? AND status = ?
		   AND ((? IS NULL AND reviewer_id IS NULL) OR reviewer_id = ?)`,
		string(rv.Status), rv.Priority, nullStr(rv.ReviewerID), nullTime(rv.AssignedAt),
		nullTime(rv.ReviewedAt), nullStr(rv.Decision), nullStr(rv.Feedback), mods,
		nullStr(rv.AutoApprovalRuleID), now,
		rv.ID, string(fromStatus), nullStr(fromReviewer), nullStr(fromReviewer))
	if err != nil {
		return false, mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	rv.UpdatedAt = now
	return true, nil
}

// Queue returns reviews matching the filter ordered by priority descending,
// then creation time ascending (oldest first within a priority band).
func (r *ReviewRepo) Queue(ctx context.Context, filter domain.ReviewQueueFilter) ([]domain.Review, int64, error) {
	where := []string{"1=1"}
	var args []any

	if filter.ReviewerID != nil {
		where = append(where, "r.reviewer_id = ?")
		args = append(args, *filter.ReviewerID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "r.status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.MinPriority != nil {
		where = append(where, "r.priority >= ?")
		args = append(args, *filter.MinPriority)
	}
	if filter.DocType != nil {
		where = append(where, "d.doc_type = ?")
		args = append(args, *filter.DocType)
	}

	base := ` FROM reviews r JOIN documents d ON d.id = r.document_id WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+reviewColumnsQualified+base+` ORDER BY r.priority DESC, r.created_at ASC LIMIT ? OFFSET ?`,
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, total, rows.Err()
}

// OpenCountsByReviewer returns the number of pending/in_review reviews
// currently assigned to each reviewer.
func (r *ReviewRepo) OpenCountsByReviewer(ctx context.Context) (map[string]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT reviewer_id, COUNT(*) FROM reviews
		 WHERE reviewer_id IS NOT NULL AND status IN ('pending', 'in_review')
		 GROUP BY reviewer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var reviewer string
		var n int64
		if err := rows.Scan(&reviewer, &n); err != nil {
			return nil, err
		}
		counts[reviewer] = n
	}
	return counts, rows.Err()
}

// ListUnassignedPending returns pending reviews with no reviewer, oldest
// first, for the bulk-assignment sweeper.
func (r *ReviewRepo) ListUnassignedPending(ctx context.Context, limit int) ([]domain.Review, error) {
	if limit <= 0 {
		limit = domain.DefaultMaxResults
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE status = 'pending' AND reviewer_id IS NULL
		 ORDER BY priority DESC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}
