// Package service implements the review workflow engine and its sibling
// services on top of the domain repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"docflow/internal/domain"
)

// Options holds engine behavior configuration.
type Options struct {
	// AutoAssign enables reviewer selection directly on intake when no
	// approval rule fires.
	AutoAssign bool
	// CriticalDocTypes boosts derived priority for documents of these types.
	CriticalDocTypes map[string]bool
}

// ReviewService is the review workflow engine: it creates reviews, runs the
// rule matcher and assignment selector, applies state transitions, and
// writes the audit trail and metric samples for every transition.
//
// Each transition commits the status change, its audit record, and its
// metric sample as one SQLite transaction. Notification dispatch happens
// after commit and is best-effort.
type ReviewService struct {
	db          domain.TxBeginner
	reviews     domain.ReviewRepository
	reviewsRead domain.ReviewRepository
	documents   domain.DocumentRepository
	rules       domain.RuleRepository
	users       domain.UserRepository
	audit       domain.AuditRepository
	metrics     domain.MetricRepository
	notifier    domain.Notifier
	opts        Options
	logger      *slog.Logger
}

// NewReviewService wires the engine. reviewsRead may be a repo bound to the
// read pool; pass the write repo again when no split is needed.
func NewReviewService(
	db domain.TxBeginner,
	reviews, reviewsRead domain.ReviewRepository,
	documents domain.DocumentRepository,
	rules domain.RuleRepository,
	users domain.UserRepository,
	audit domain.AuditRepository,
	metrics domain.MetricRepository,
	notifier domain.Notifier,
	opts Options,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		db:          db,
		reviews:     reviews,
		reviewsRead: reviewsRead,
		documents:   documents,
		rules:       rules,
		users:       users,
		audit:       audit,
		metrics:     metrics,
		notifier:    notifier,
		opts:        opts,
		logger:      logger,
	}
}

// CreateReview handles intake of a proposed document change. Intake is
// idempotent on (document_id, change_id): while an earlier review for the
// pair is non-terminal, that review is returned unchanged and the created
// flag is false.
func (s *ReviewService) CreateReview(ctx context.Context, req domain.CreateReviewRequest) (*domain.Review, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if existing, err := s.reviews.GetOpenByChange(ctx, req.DocumentID, req.ChangeID); err == nil {
		return existing, false, nil
	} else if !isNotFound(err) {
		return nil, false, err
	}

	doc, err := s.documents.GetByID(ctx, req.DocumentID)
	if err != nil {
		if isNotFound(err) {
			return nil, false, domain.ErrNotFound("document %s not found", req.DocumentID)
		}
		return nil, false, err
	}

	priority := domain.DerivePriority(req.ImpactScore, doc.DocType, s.opts.CriticalDocTypes)
	if req.Priority != nil {
		priority = *req.Priority
	}

	now := time.Now().UTC()
	review := &domain.Review{
		DocumentID:      req.DocumentID,
		ChangeID:        req.ChangeID,
		ProposedVersion: req.ProposedVersion,
		Status:          domain.ReviewPending,
		Priority:        priority,
		ImpactScore:     req.ImpactScore,
		AIConfidence:    req.AIConfidence,
	}

	activeRules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, false, err
	}
	matched := MatchRule(activeRules, ReviewCandidate{
		DocType:      doc.DocType,
		ImpactScore:  req.ImpactScore,
		AIConfidence: req.AIConfidence,
	})

	switch {
	case matched != nil:
		decision := domain.DecisionAutoApproved
		review.Status = domain.ReviewAutoApproved
		review.Decision = &decision
		review.ReviewedAt = &now
		review.AutoApprovalRuleID = &matched.ID
	case s.opts.AutoAssign:
		reviewer, err := s.pickReviewer(ctx, req.ImpactScore)
		if err != nil {
			return nil, false, err
		}
		if reviewer != nil {
			review.Status = domain.ReviewInReview
			review.ReviewerID = &reviewer.ID
			review.AssignedAt = &now
		}
	}

	created, err := s.createInTx(ctx, review, doc, matched)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			// Lost a duplicate-intake race: the other writer's review wins.
			// If the competitor resolved to a terminal status before the
			// re-fetch, the NotFound surfaces rather than retrying intake.
			existing, gerr := s.reviews.GetOpenByChange(ctx, req.DocumentID, req.ChangeID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	ev := reviewEvent(created)
	s.notifier.ReviewCreated(ctx, ev)
	if created.Status == domain.ReviewInReview {
		s.notifier.ReviewAssigned(ctx, ev)
	}
	if created.Status.Terminal() {
		s.notifier.ReviewCompleted(ctx, ev)
	}
	return created, true, nil
}

// createInTx persists the review, bumps the matched rule's usage counters,
// and writes the intake audit/metric records as one transaction.
func (s *ReviewService) createInTx(ctx context.Context, review *domain.Review, doc *domain.Document, matched *domain.ApprovalRule) (*domain.Review, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := s.reviews.WithTx(tx).Create(ctx, review)
	if err != nil {
		return nil, err
	}
	if matched != nil {
		if err := s.rules.WithTx(tx).IncrementUsage(ctx, matched.ID); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, tx, "review_created", created.ID, nil, reviewSnapshot(created), map[string]interface{}{
		"doc_type": doc.DocType,
	})
	s.recordMetric(ctx, tx, domain.MetricReviewsCreated, 1, map[string]string{
		"doc_type":     doc.DocType,
		"impact_score": strconv.Itoa(created.ImpactScore),
		"status":       string(created.Status),
	})

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// AssignReview assigns a pending or in-progress review to a reviewer.
// Impact scores at or above the high-impact threshold require a lead
// reviewer or admin. Exactly one of two concurrent assignments wins; the
// loser observes the review already taken and fails with ValidationError.
func (s *ReviewService) AssignReview(ctx context.Context, reviewID, reviewerID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status.Terminal() {
		return nil, domain.ErrValidation("review %s is %s and can no longer be assigned", reviewID, review.Status)
	}
	// A review taken by someone else is never overwritten.
	if review.Status == domain.ReviewInReview && review.ReviewerID != nil && *review.ReviewerID != reviewerID {
		return nil, domain.ErrValidation("review %s is already assigned to another reviewer", reviewID)
	}

	reviewer, err := s.users.GetByID(ctx, reviewerID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound("user %s not found", reviewerID)
		}
		return nil, err
	}
	if !reviewer.Active {
		return nil, domain.ErrValidation("user %s is inactive", reviewerID)
	}
	if !reviewer.Role.CanReviewImpact(review.ImpactScore) {
		return nil, domain.ErrValidation(
			"role %s cannot review impact score %d (requires lead_reviewer or admin)",
			reviewer.Role, review.ImpactScore)
	}

	now := time.Now().UTC()
	oldSnapshot := reviewSnapshot(review)
	fromStatus, fromReviewer := review.Status, review.ReviewerID

	review.Status = domain.ReviewInReview
	review.ReviewerID = &reviewer.ID
	review.AssignedAt = &now

	ok, err := s.transitionInTx(ctx, review, fromStatus, fromReviewer, "review_assigned", oldSnapshot,
		domain.MetricReviewsAssigned, map[string]string{
			"impact_score": strconv.Itoa(review.ImpactScore),
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Guard lost: someone else assigned (or resolved) the review first.
		current, ferr := s.reviews.GetByID(ctx, reviewID)
		if ferr == nil && current.ReviewerID != nil && *current.ReviewerID != reviewerID {
			return nil, domain.ErrValidation("review %s is already assigned to another reviewer", reviewID)
		}
		return nil, domain.ErrValidation("review %s changed concurrently, assignment not applied", reviewID)
	}

	s.notifier.ReviewAssigned(ctx, reviewEvent(review))
	return review, nil
}

// ApproveReview resolves a review positively. Non-empty modifications turn
// the decision into approved_with_changes.
func (s *ReviewService) ApproveReview(ctx context.Context, reviewID, reviewerID string, feedback *string, modifications map[string]interface{}) (*domain.Review, error) {
	review, err := s.decidableReview(ctx, reviewID, reviewerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	oldSnapshot := reviewSnapshot(review)
	fromStatus, fromReviewer := review.Status, review.ReviewerID

	status := domain.ReviewApproved
	if len(modifications) > 0 {
		status = domain.ReviewApprovedWithChanges
	}
	decision := string(status)
	review.Status = status
	review.Decision = &decision
	review.Feedback = feedback
	review.Modifications = modifications
	review.ReviewedAt = &now

	ok, err := s.transitionInTx(ctx, review, fromStatus, fromReviewer, "review_approved", oldSnapshot,
		domain.MetricReviewsApproved, map[string]string{
			"with_modifications": strconv.FormatBool(len(modifications) > 0),
			"latency_ms":         strconv.FormatInt(now.Sub(review.CreatedAt).Milliseconds(), 10),
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrValidation("review %s changed concurrently, approval not applied", reviewID)
	}

	s.notifier.ReviewCompleted(ctx, reviewEvent(review))
	return review, nil
}

// RejectReview resolves a review negatively. Feedback is mandatory.
func (s *ReviewService) RejectReview(ctx context.Context, reviewID, reviewerID string, feedback string) (*domain.Review, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, domain.ErrValidation("rejection feedback is required")
	}

	review, err := s.decidableReview(ctx, reviewID, reviewerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	oldSnapshot := reviewSnapshot(review)
	fromStatus, fromReviewer := review.Status, review.ReviewerID

	decision := domain.DecisionRejected
	review.Status = domain.ReviewRejected
	review.Decision = &decision
	review.Feedback = &feedback
	review.ReviewedAt = &now

	ok, err := s.transitionInTx(ctx, review, fromStatus, fromReviewer, "review_rejected", oldSnapshot,
		domain.MetricReviewsRejected, map[string]string{
			"impact_score": strconv.Itoa(review.ImpactScore),
			"latency_ms":   strconv.FormatInt(now.Sub(review.CreatedAt).Milliseconds(), 10),
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrValidation("review %s changed concurrently, rejection not applied", reviewID)
	}

	s.notifier.ReviewCompleted(ctx, reviewEvent(review))
	return review, nil
}

// GetReview returns a single review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviewsRead.GetByID(ctx, id)
}

// GetReviewQueue returns reviews matching the filter, ordered by priority
// descending then creation time ascending.
func (s *ReviewService) GetReviewQueue(ctx context.Context, filter domain.ReviewQueueFilter) ([]domain.Review, int64, error) {
	return s.reviewsRead.Queue(ctx, filter)
}

// AssignPending walks unassigned pending reviews and assigns each to the
// least-loaded eligible reviewer. It is a synchronous bulk operation meant
// to be driven by an external scheduler; reviews with no eligible reviewer
// are left pending. Returns the number of reviews assigned.
func (s *ReviewService) AssignPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.reviews.ListUnassignedPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for i := range pending {
		review := &pending[i]
		reviewer, err := s.pickReviewer(ctx, review.ImpactScore)
		if err != nil {
			return assigned, err
		}
		if reviewer == nil {
			continue
		}

		now := time.Now().UTC()
		oldSnapshot := reviewSnapshot(review)
		fromStatus, fromReviewer := review.Status, review.ReviewerID

		review.Status = domain.ReviewInReview
		review.ReviewerID = &reviewer.ID
		review.AssignedAt = &now

		ok, err := s.transitionInTx(ctx, review, fromStatus, fromReviewer, "review_assigned", oldSnapshot,
			domain.MetricReviewsAssigned, map[string]string{
				"impact_score": strconv.Itoa(review.ImpactScore),
				"sweep":        "true",
			})
		if err != nil {
			return assigned, err
		}
		if !ok {
			continue
		}
		assigned++
		s.notifier.ReviewAssigned(ctx, reviewEvent(review))
	}
	return assigned, nil
}

// decidableReview loads a review and checks the shared approve/reject
// guards: non-terminal status and assignment to the acting reviewer.
func (s *ReviewService) decidableReview(ctx context.Context, reviewID, reviewerID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status != domain.ReviewPending && review.Status != domain.ReviewInReview {
		return nil, domain.ErrValidation("review %s is %s and can no longer be decided", reviewID, review.Status)
	}
	if review.ReviewerID == nil || *review.ReviewerID != reviewerID {
		return nil, domain.ErrValidation("review %s is not assigned to user %s", reviewID, reviewerID)
	}
	return review, nil
}

// pickReviewer runs the assignment selector over the current user pool.
func (s *ReviewService) pickReviewer(ctx context.Context, impactScore int) (*domain.User, error) {
	candidates, err := s.users.ListActiveByRoles(ctx, domain.EligibleRoles(impactScore))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	counts, err := s.reviews.OpenCountsByReviewer(ctx)
	if err != nil {
		return nil, err
	}
	return SelectReviewer(candidates, counts), nil
}

// transitionInTx applies the guarded review update plus its audit record
// and metric sample as one transaction. Returns false when the optimistic
// guard was lost; the review row is then untouched.
func (s *ReviewService) transitionInTx(
	ctx context.Context,
	review *domain.Review,
	fromStatus domain.ReviewStatus,
	fromReviewer *string,
	auditAction string,
	oldSnapshot map[string]interface{},
	metricName string,
	dimensions map[string]string,
) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	ok, err := s.reviews.WithTx(tx).Transition(ctx, review, fromStatus, fromReviewer)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.recordAudit(ctx, tx, auditAction, review.ID, oldSnapshot, reviewSnapshot(review), nil)
	s.recordMetric(ctx, tx, metricName, 1, dimensions)

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// recordAudit appends an audit entry inside the transition's transaction.
// Failures are logged and never fail the transition.
func (s *ReviewService) recordAudit(ctx context.Context, tx *sql.Tx, action, reviewID string, oldValues, newValues, metadata map[string]interface{}) {
	entry := &domain.AuditEntry{
		Action:       action,
		ResourceType: "review",
		ResourceID:   reviewID,
		OldValues:    oldValues,
		NewValues:    newValues,
		Metadata:     metadata,
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		entry.ActorID = &actor.UserID
	}
	if origin := domain.OriginFromContext(ctx); origin != "" {
		entry.Origin = &origin
	}
	if err := s.audit.WithTx(tx).Insert(ctx, entry); err != nil {
		s.logger.Error("audit write failed", "action", action, "review_id", reviewID, "error", err)
	}
}

// recordMetric appends a metric sample inside the transition's transaction.
// Failures are logged and never fail the transition.
func (s *ReviewService) recordMetric(ctx context.Context, tx *sql.Tx, name string, value float64, dimensions map[string]string) {
	err := s.metrics.WithTx(tx).Insert(ctx, &domain.MetricSample{
		Name:       name,
		Value:      value,
		Dimensions: dimensions,
	})
	if err != nil {
		s.logger.Error("metric write failed", "metric", name, "error", err)
	}
}

// reviewSnapshot captures the audit-relevant state of a review.
func reviewSnapshot(r *domain.Review) map[string]interface{} {
	snap := map[string]interface{}{
		"status":       string(r.Status),
		"priority":     r.Priority,
		"impact_score": r.ImpactScore,
	}
	if r.ReviewerID != nil {
		snap["reviewer_id"] = *r.ReviewerID
	}
	if r.Decision != nil {
		snap["decision"] = *r.Decision
	}
	if r.Feedback != nil {
		snap["feedback"] = *r.Feedback
	}
	if r.AutoApprovalRuleID != nil {
		snap["auto_approval_rule_id"] = *r.AutoApprovalRuleID
	}
	return snap
}

func reviewEvent(r *domain.Review) domain.ReviewEvent {
	return domain.ReviewEvent{
		ReviewID:    r.ID,
		DocumentID:  r.DocumentID,
		ChangeID:    r.ChangeID,
		Status:      r.Status,
		Priority:    r.Priority,
		ImpactScore: r.ImpactScore,
		ReviewerID:  r.ReviewerID,
		Decision:    r.Decision,
	}
}

func isNotFound(err error) bool {
	var notFound *domain.NotFoundError
	return errors.As(err, &notFound)
}
