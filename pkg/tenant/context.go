package tenant

import "context"

type contextKey struct{}

// WithContext stores the resolved billing key in the context.
func WithContext(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// FromContext returns the billing key resolved for this request.
// The boolean is false when no key was resolved (unauthenticated paths,
// background jobs that address tenants explicitly).
func FromContext(ctx context.Context) (Key, bool) {
	if ctx == nil {
		return Key{}, false
	}
	key, ok := ctx.Value(contextKey{}).(Key)
	return key, ok
}
