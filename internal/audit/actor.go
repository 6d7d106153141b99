package audit

import "context"

// SystemActor is recorded when no authenticated principal is available.
const SystemActor = "system"

type actorKey struct{}

// WithActor stores the acting principal on the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting principal, or SystemActor if none was set.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
