package middleware

import (
	"context"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

type contextKey string

const (
	ctxLogin contextKey = "actor_login"
	ctxTier  contextKey = "access_tier"
)

func LoginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxLogin).(string); ok {
		return v
	}
	return ""
}

func TierFromContext(ctx context.Context) enums.AccessTier {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTier).(string); ok {
		return enums.AccessTier(v)
	}
	return ""
}

// WithLogin injects the actor login into the context.
func WithLogin(ctx context.Context, login string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLogin, login)
}

// WithTier injects the access tier into the context.
func WithTier(ctx context.Context, tier enums.AccessTier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTier, string(tier))
}
