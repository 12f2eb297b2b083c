package fetcher

import (
	"context"
	"net/url"
)

// RedirectGuard vets a redirect hop before it is followed. A non-nil error
// stops the fetch, which then fails with a *RedirectError wrapping it.
type RedirectGuard func(target *url.URL) error

type redirectGuardKey struct{}

// WithRedirectGuard returns a context whose direct fetches consult guard on
// every redirect hop. The guard travels with the context so that one
// fetcher can serve several crawls, each with its own guard.
func WithRedirectGuard(ctx context.Context, guard RedirectGuard) context.Context {
	return context.WithValue(ctx, redirectGuardKey{}, guard)
}

func redirectGuardFrom(ctx context.Context) RedirectGuard {
	guard, _ := ctx.Value(redirectGuardKey{}).(RedirectGuard)
	return guard
}
