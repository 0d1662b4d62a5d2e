package domain

import "time"

// ReviewStatus is the state of a review in its lifecycle.
type ReviewStatus string

const (
	ReviewPending             ReviewStatus = "pending"
	ReviewInReview            ReviewStatus = "in_review"
	ReviewApproved            ReviewStatus = "approved"
	ReviewApprovedWithChanges ReviewStatus = "approved_with_changes"
	ReviewRejected            ReviewStatus = "rejected"
	ReviewAutoApproved        ReviewStatus = "auto_approved"
)

// Terminal reports whether no further transition is permitted.
func (s ReviewStatus) Terminal() bool {
	switch s {
	case ReviewApproved, ReviewApprovedWithChanges, ReviewRejected, ReviewAutoApproved:
		return true
	}
	return false
}

// Decision codes recorded on resolved reviews.
const (
	DecisionApproved     = "approved"
	DecisionRejected     = "rejected"
	DecisionAutoApproved = "auto_approved"
)

// Score bounds shared by impact score and priority.
const (
	MinScore = 1
	MaxScore = 10
)

// CriticalTypeBoost is added to the derived priority when the document's
// type is in the configured critical set.
const CriticalTypeBoost = 2

// Review is one pending-or-resolved decision about whether a proposed
// document version may be published. Terminal reviews are retained for
// audit and never deleted.
type Review struct {
	ID                 string
	DocumentID         string
	ChangeID           string // idempotency key together with DocumentID
	ProposedVersion    int
	Status             ReviewStatus
	Priority           int // 1-10, queue ordering
	ImpactScore        int // 1-10, caller-supplied
	AIConfidence       *int // 0-100 percentage, from the change detector
	ReviewerID         *string
	AssignedAt         *time.Time
	ReviewedAt         *time.Time
	Decision           *string
	Feedback           *string
	Modifications      map[string]interface{} // structured edits requested on approval
	AutoApprovalRuleID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateReviewRequest holds intake parameters for a new review.
type CreateReviewRequest struct {
	DocumentID      string
	ChangeID        string
	ProposedVersion int
	ImpactScore     int
	AIConfidence    *int // 0-100 percentage, optional
	Priority        *int // caller-supplied value wins over derivation
}

// Validate checks that the request is well-formed.
func (r *CreateReviewRequest) Validate() error {
	if r.DocumentID == "" {
		return ErrValidation("document_id is required")
	}
	if r.ChangeID == "" {
		return ErrValidation("change_id is required")
	}
	if r.ProposedVersion <= 0 {
		return ErrValidation("proposed_version must be positive")
	}
	if r.ImpactScore < MinScore || r.ImpactScore > MaxScore {
		return ErrValidation("impact_score must be between %d and %d", MinScore, MaxScore)
	}
	if r.Priority != nil && (*r.Priority < MinScore || *r.Priority > MaxScore) {
		return ErrValidation("priority must be between %d and %d", MinScore, MaxScore)
	}
	if r.AIConfidence != nil && (*r.AIConfidence < 0 || *r.AIConfidence > 100) {
		return ErrValidation("ai_confidence must be a percentage between 0 and 100")
	}
	return nil
}

// DerivePriority computes the queue priority for a review when the caller
// does not supply one: the impact score, boosted when the document's type
// is in the critical set, capped at MaxScore.
func DerivePriority(impactScore int, docType string, criticalTypes map[string]bool) int {
	p := impactScore
	if criticalTypes[docType] {
		p += CriticalTypeBoost
	}
	if p > MaxScore {
		p = MaxScore
	}
	return p
}

// ReviewQueueFilter holds filter parameters for queue queries.
type ReviewQueueFilter struct {
	ReviewerID  *string
	Statuses    []ReviewStatus
	MinPriority *int
	DocType     *string
	Page        PageRequest
}
