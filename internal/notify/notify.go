// Package notify provides Notifier implementations for workflow events.
// The engine calls the Notifier after a transition commits; nothing here
// may block the request path for long or fail the transition.
package notify

import (
	"context"
	"log/slog"

	"docflow/internal/domain"
)

// LogNotifier writes workflow events to the structured log. It is the
// default sink when no delivery transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ domain.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) ReviewCreated(_ context.Context, ev domain.ReviewEvent) {
	n.logger.Info("review created",
		"review_id", ev.ReviewID, "document_id", ev.DocumentID,
		"status", string(ev.Status), "priority", ev.Priority)
}

func (n *LogNotifier) ReviewAssigned(_ context.Context, ev domain.ReviewEvent) {
	reviewer := ""
	if ev.ReviewerID != nil {
		reviewer = *ev.ReviewerID
	}
	n.logger.Info("review assigned",
		"review_id", ev.ReviewID, "reviewer_id", reviewer, "impact_score", ev.ImpactScore)
}

func (n *LogNotifier) ReviewCompleted(_ context.Context, ev domain.ReviewEvent) {
	decision := ""
	if ev.Decision != nil {
		decision = *ev.Decision
	}
	n.logger.Info("review completed",
		"review_id", ev.ReviewID, "status", string(ev.Status), "decision", decision)
}

// NopNotifier discards all events. Useful in tests and the CLI.
type NopNotifier struct{}

var _ domain.Notifier = NopNotifier{}

func (NopNotifier) ReviewCreated(context.Context, domain.ReviewEvent)   {}
func (NopNotifier) ReviewAssigned(context.Context, domain.ReviewEvent)  {}
func (NopNotifier) ReviewCompleted(context.Context, domain.ReviewEvent) {}
