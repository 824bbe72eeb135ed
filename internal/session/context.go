package session

import (
	"context"
	"strings"
)

// DefaultScope is used when no scope was attached to the context.
const DefaultScope = "default"

type scopeKey struct{}

// WithScope attaches the storage scope that requests made with ctx act on.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the scope carried by ctx or DefaultScope.
func ScopeFrom(ctx context.Context) string {
	if ctx == nil {
		return DefaultScope
	}
	if scope, ok := ctx.Value(scopeKey{}).(string); ok && strings.TrimSpace(scope) != "" {
		return scope
	}
	return DefaultScope
}
