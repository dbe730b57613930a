package application

import (
	"context"
	"strings"
)

type actorContextKey struct{}

const systemActor = "System"

// ContextWithActor records the display name of whoever triggered an operation
// so activity entries can attribute it.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	actor = strings.TrimSpace(actor)
	if ctx == nil || actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or "System".
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return systemActor
	}
	if actor, ok := ctx.Value(actorContextKey{}).(string); ok && actor != "" {
		return actor
	}
	return systemActor
}
