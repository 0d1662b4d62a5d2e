package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"docflow/internal/domain"
)

// Review is the API representation of a review.
type Review struct {
	ID                 string                 `json:"id"`
	DocumentID         string                 `json:"document_id"`
	ChangeID           string                 `json:"change_id"`
	ProposedVersion    int                    `json:"proposed_version"`
	Status             string                 `json:"status"`
	Priority           int                    `json:"priority"`
	ImpactScore        int                    `json:"impact_score"`
	AIConfidence       *int                   `json:"ai_confidence,omitempty"`
	ReviewerID         *string                `json:"reviewer_id,omitempty"`
	AssignedAt         *time.Time             `json:"assigned_at,omitempty"`
	ReviewedAt         *time.Time             `json:"reviewed_at,omitempty"`
	Decision           *string                `json:"decision,omitempty"`
	Feedback           *string                `json:"feedback,omitempty"`
	Modifications      map[string]interface{} `json:"modifications,omitempty"`
	AutoApprovalRuleID *string                `json:"auto_approval_rule_id,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

func reviewToAPI(r *domain.Review) Review {
	return Review{
		ID:                 r.ID,
		DocumentID:         r.DocumentID,
		ChangeID:           r.ChangeID,
		ProposedVersion:    r.ProposedVersion,
		Status:             string(r.Status),
		Priority:           r.Priority,
		ImpactScore:        r.ImpactScore,
		AIConfidence:       r.AIConfidence,
		ReviewerID:         r.ReviewerID,
		AssignedAt:         r.AssignedAt,
		ReviewedAt:         r.ReviewedAt,
		Decision:           r.Decision,
		Feedback:           r.Feedback,
		Modifications:      r.Modifications,
		AutoApprovalRuleID: r.AutoApprovalRuleID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type createReviewRequest struct {
	DocumentID      string `json:"document_id"`
	ChangeID        string `json:"change_id"`
	ProposedVersion int    `json:"proposed_version"`
	ImpactScore     int    `json:"impact_score"`
	AIConfidence    *int   `json:"ai_confidence,omitempty"`
	Priority        *int   `json:"priority,omitempty"`
}

// CreateReview handles POST /reviews. Intake is idempotent on
// (document_id, change_id): resubmitting an open change returns the
// existing review with 200 instead of 201.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var body createReviewRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	review, created, err := h.reviews.CreateReview(r.Context(), domain.CreateReviewRequest{
		DocumentID:      body.DocumentID,
		ChangeID:        body.ChangeID,
		ProposedVersion: body.ProposedVersion,
		ImpactScore:     body.ImpactScore,
		AIConfidence:    body.AIConfidence,
		Priority:        body.Priority,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, reviewToAPI(review))
}

// GetReview handles GET /reviews/{reviewID}.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToAPI(review))
}

// GetReviewQueue handles GET /reviews/queue. Results are ordered by
// priority descending, then creation time ascending.
func (h *Handler) GetReviewQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ReviewQueueFilter{Page: pageFromQuery(r)}

	if v := q.Get("reviewer_id"); v != "" {
		filter.ReviewerID = &v
	}
	if v := q.Get("doc_type"); v != "" {
		filter.DocType = &v
	}
	if v := q.Get("min_priority"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, domain.ErrValidation("min_priority must be an integer"))
			return
		}
		filter.MinPriority = &n
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, domain.ReviewStatus(s))
	}

	reviews, total, err := h.reviews.GetReviewQueue(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]Review, len(reviews))
	for i := range reviews {
		out[i] = reviewToAPI(&reviews[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, filter.Page, total))
}

type assignReviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

// AssignReview handles POST /reviews/{reviewID}/assign.
func (h *Handler) AssignReview(w http.ResponseWriter, r *http.Request) {
	var body assignReviewRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	if body.ReviewerID == "" {
		h.writeError(w, domain.ErrValidation("reviewer_id is required"))
		return
	}

	review, err := h.reviews.AssignReview(r.Context(), chi.URLParam(r, "reviewID"), body.ReviewerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToAPI(review))
}

// ClaimReview handles POST /reviews/{reviewID}/claim: the authenticated
// actor assigns the review to themselves.
func (h *Handler) ClaimReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := domain.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrAccessDenied("authentication required"))
		return
	}

	review, err := h.reviews.AssignReview(r.Context(), chi.URLParam(r, "reviewID"), actor.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToAPI(review))
}

type approveReviewRequest struct {
	Feedback      *string                `json:"feedback,omitempty"`
	Modifications map[string]interface{} `json:"modifications,omitempty"`
}

// ApproveReview handles POST /reviews/{reviewID}/approve. Non-empty
// modifications resolve the review as approved_with_changes.
func (h *Handler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := domain.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrAccessDenied("authentication required"))
		return
	}

	var body approveReviewRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	review, err := h.reviews.ApproveReview(r.Context(), chi.URLParam(r, "reviewID"), actor.UserID, body.Feedback, body.Modifications)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToAPI(review))
}

type rejectReviewRequest struct {
	Feedback string `json:"feedback"`
}

// RejectReview handles POST /reviews/{reviewID}/reject. Feedback is
// mandatory.
func (h *Handler) RejectReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := domain.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrAccessDenied("authentication required"))
		return
	}

	var body rejectReviewRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	review, err := h.reviews.RejectReview(r.Context(), chi.URLParam(r, "reviewID"), actor.UserID, body.Feedback)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewToAPI(review))
}
