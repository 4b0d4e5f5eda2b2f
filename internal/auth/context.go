package auth

import (
	"context"

	"github.com/bridgesync/bridgesync/internal/model"
)

type principalKey struct{}

// WithPrincipal returns a context carrying the resolved principal.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal placed by the auth middleware.
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}

// ContextAccessor exposes the request-scoped principal as a session accessor.
type ContextAccessor struct{}

// CurrentPrincipal implements the session accessor over the request context.
func (ContextAccessor) CurrentPrincipal(ctx context.Context) (model.Principal, bool) {
	return PrincipalFrom(ctx)
}
