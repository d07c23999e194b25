package reconcile

import "context"

type principalKey struct{}

// WithPrincipal returns a context carrying principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// ContextPrincipal reads the principal placed on the context by WithPrincipal.
type ContextPrincipal struct{}

// CurrentPrincipal implements PrincipalProvider.
func (ContextPrincipal) CurrentPrincipal(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey{}).(string)
	return p, ok && p != ""
}

// StaticPrincipal always acts as the same principal. An empty value means absent.
type StaticPrincipal string

// CurrentPrincipal implements PrincipalProvider.
func (s StaticPrincipal) CurrentPrincipal(context.Context) (string, bool) {
	return string(s), s != ""
}

// FirstPrincipal tries each provider in order and returns the first principal found.
type FirstPrincipal []PrincipalProvider

// CurrentPrincipal implements PrincipalProvider.
func (f FirstPrincipal) CurrentPrincipal(ctx context.Context) (string, bool) {
	for _, p := range f {
		if id, ok := p.CurrentPrincipal(ctx); ok {
			return id, true
		}
	}
	return "", false
}
