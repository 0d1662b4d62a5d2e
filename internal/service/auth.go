package service

import (
	"context"

	"docflow/internal/domain"
)

// requireAdmin checks that the context carries an admin actor.
func requireAdmin(ctx context.Context) error {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.ErrAccessDenied("authentication required")
	}
	if !actor.IsAdmin() {
		return domain.ErrAccessDenied("admin privileges required")
	}
	return nil
}
