// Package api provides HTTP handlers for the review workflow REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"docflow/internal/domain"
	"docflow/internal/service"
)

// Handler holds the service dependencies for all HTTP endpoints.
type Handler struct {
	reviews   *service.ReviewService
	documents *service.DocumentService
	rules     *service.RuleService
	users     *service.UserService
	audit     *service.AuditService
	metrics   *service.MetricService
	logger    *slog.Logger
}

// NewHandler creates a new Handler with all required service dependencies.
func NewHandler(
	reviews *service.ReviewService,
	documents *service.DocumentService,
	rules *service.RuleService,
	users *service.UserService,
	audit *service.AuditService,
	metrics *service.MetricService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reviews:   reviews,
		documents: documents,
		rules:     rules,
		users:     users,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}
}

// Routes mounts all API endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", h.CreateReview)
		r.Get("/queue", h.GetReviewQueue)
		r.Get("/{reviewID}", h.GetReview)
		r.Post("/{reviewID}/assign", h.AssignReview)
		r.Post("/{reviewID}/claim", h.ClaimReview)
		r.Post("/{reviewID}/approve", h.ApproveReview)
		r.Post("/{reviewID}/reject", h.RejectReview)
	})
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.CreateDocument)
		r.Get("/", h.ListDocuments)
		r.Get("/{documentID}", h.GetDocument)
		r.Patch("/{documentID}", h.UpdateDocument)
		r.Post("/{documentID}/archive", h.ArchiveDocument)
	})
	r.Route("/rules", func(r chi.Router) {
		r.Post("/", h.CreateRule)
		r.Get("/", h.ListRules)
		r.Get("/{ruleID}", h.GetRule)
		r.Patch("/{ruleID}/active", h.SetRuleActive)
	})
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Patch("/{userID}/active", h.SetUserActive)
	})
	r.Get("/audit", h.ListAudit)
	r.Get("/metrics", h.ListMetrics)
}

// --- response helpers ---

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from max_results/page_token params.
func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// listEnvelope is the common shape of paginated list responses.
type listEnvelope struct {
	Data          interface{} `json:"data"`
	TotalCount    int64       `json:"total_count"`
	NextPageToken *string     `json:"next_page_token,omitempty"`
}

func listResponse(data interface{}, page domain.PageRequest, total int64) listEnvelope {
	return listEnvelope{
		Data:          data,
		TotalCount:    total,
		NextPageToken: optStr(domain.NextPageToken(page.Offset(), page.Limit(), total)),
	}
}
