package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docflow/internal/domain"
)

// ApprovalRule is the API representation of an approval rule.
type ApprovalRule struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Conditions    domain.RuleConditions `json:"conditions"`
	Action        string                `json:"action"`
	Priority      int                   `json:"priority"`
	Active        bool                  `json:"active"`
	TimesApplied  int64                 `json:"times_applied"`
	LastAppliedAt *time.Time            `json:"last_applied_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

func ruleToAPI(r *domain.ApprovalRule) ApprovalRule {
	return ApprovalRule{
		ID:            r.ID,
		Name:          r.Name,
		Conditions:    r.Conditions,
		Action:        r.Action,
		Priority:      r.Priority,
		Active:        r.Active,
		TimesApplied:  r.TimesApplied,
		LastAppliedAt: r.LastAppliedAt,
		CreatedAt:     r.CreatedAt,
	}
}

type createRuleRequest struct {
	Name       string                `json:"name"`
	Conditions domain.RuleConditions `json:"conditions"`
	Action     string                `json:"action,omitempty"`
	Priority   int                   `json:"priority"`
}

// CreateRule handles POST /rules. Admin only.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var body createRuleRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	rule, err := h.rules.Create(r.Context(), domain.CreateRuleRequest{
		Name:       body.Name,
		Conditions: body.Conditions,
		Action:     body.Action,
		Priority:   body.Priority,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ruleToAPI(rule))
}

// ListRules handles GET /rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	rules, total, err := h.rules.List(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]ApprovalRule, len(rules))
	for i := range rules {
		out[i] = ruleToAPI(&rules[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, page, total))
}

// GetRule handles GET /rules/{ruleID}.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := h.rules.GetByID(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleToAPI(rule))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetRuleActive handles PATCH /rules/{ruleID}/active. Admin only.
func (h *Handler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
	var body setActiveRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.rules.SetActive(r.Context(), chi.URLParam(r, "ruleID"), body.Active); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
