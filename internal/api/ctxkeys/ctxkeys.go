// Package ctxkeys holds the shared context keys of the API layer.
// Extracted to a leaf package to avoid import cycles between api and middleware.
package ctxkeys

import "context"

// Key is the unexported named type for all API context keys.
// Using a named type avoids collisions with string keys from other packages
// at runtime (context.Value compares both type and value).
type Key string

const (
	// UserID is the context key for the authenticated user.
	// Injected by AuthMiddleware from JWT claims.
	UserID Key = "user_id"

	// Role is the context key for the authenticated user's role.
	// Injected by AuthMiddleware from JWT claims.
	Role Key = "role"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}
