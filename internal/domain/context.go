package domain

import "context"

type actorKey struct{}

// Actor carries the authenticated identity through request context.
type Actor struct {
	UserID string
	Name   string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// WithActor stores an Actor in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext extracts the Actor from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

type originKey struct{}

// WithOrigin stores the caller origin (IP / user agent) in the context for
// audit recording.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext extracts the caller origin from the context.
// Returns an empty string if no origin is present.
func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
