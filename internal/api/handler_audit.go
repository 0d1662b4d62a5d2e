package api

import (
	"net/http"
	"time"

	"docflow/internal/domain"
)

// AuditEntry is the API representation of an audit log record.
type AuditEntry struct {
	ID           string                 `json:"id"`
	ActorID      *string                `json:"actor_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	OldValues    map[string]interface{} `json:"old_values,omitempty"`
	NewValues    map[string]interface{} `json:"new_values,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Origin       *string                `json:"origin,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// MetricSample is the API representation of a metric sample.
type MetricSample struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ListAudit handles GET /audit. Admin only.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{Page: pageFromQuery(r)}

	if v := q.Get("actor_id"); v != "" {
		filter.ActorID = &v
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("resource_type"); v != "" {
		filter.ResourceType = &v
	}
	if v := q.Get("resource_id"); v != "" {
		filter.ResourceID = &v
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, domain.ErrValidation("since must be an RFC3339 timestamp"))
			return
		}
		filter.Since = &t
	}

	entries, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]AuditEntry, len(entries))
	for i, e := range entries {
		out[i] = AuditEntry{
			ID:           e.ID,
			ActorID:      e.ActorID,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			OldValues:    e.OldValues,
			NewValues:    e.NewValues,
			Metadata:     e.Metadata,
			Origin:       e.Origin,
			CreatedAt:    e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, listResponse(out, filter.Page, total))
}

// ListMetrics handles GET /metrics.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.MetricFilter{Page: pageFromQuery(r)}

	if v := q.Get("name"); v != "" {
		filter.Name = &v
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, domain.ErrValidation("since must be an RFC3339 timestamp"))
			return
		}
		filter.Since = &t
	}

	samples, total, err := h.metrics.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]MetricSample, len(samples))
	for i, m := range samples {
		out[i] = MetricSample{
			ID:         m.ID,
			Name:       m.Name,
			Value:      m.Value,
			Dimensions: m.Dimensions,
			CreatedAt:  m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, listResponse(out, filter.Page, total))
}
