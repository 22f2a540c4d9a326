package internal

import (
	"context"
	"time"
)

type ctxKey string

const contextActorKey ctxKey = "actorID"

const defaultStoreCallTimeout = 5 * time.Second

// ActorIDFromContext returns the id of the authenticated user acting on the request, if any.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if actorID, ok := ctx.Value(contextActorKey).(string); ok {
		return actorID
	}
	return ""
}

func ContextWithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextActorKey, actorID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = defaultStoreCallTimeout
	}
	return context.WithTimeout(ctx, duration)
}
