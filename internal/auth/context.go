// ABOUTME: Request context plumbing for authenticated principal identity
// ABOUTME: WithPrincipal/FromContext pair keeps caller identity off global state

package auth

import "context"

type contextKey struct{}

// PrincipalContext carries the authenticated caller's identity.
type PrincipalContext struct {
	PrincipalID string
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, pc *PrincipalContext) context.Context {
	return context.WithValue(ctx, contextKey{}, pc)
}

// FromContext extracts the principal from the context, if present.
func FromContext(ctx context.Context) (*PrincipalContext, bool) {
	pc, ok := ctx.Value(contextKey{}).(*PrincipalContext)
	return pc, ok
}

// MustFromContext extracts the principal or panics. Use only behind the
// authentication middleware.
func MustFromContext(ctx context.Context) *PrincipalContext {
	pc, ok := FromContext(ctx)
	if !ok {
		panic("auth: no principal in context")
	}
	return pc
}
