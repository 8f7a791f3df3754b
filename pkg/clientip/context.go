package clientip

import (
	"context"
	"net/http"
)

type contextKey struct{}

// Middleware resolves the client IP once per request and stores it in the
// context, so downstream log lines agree on a single value.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextKey{}, FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the IP stored by Middleware, or "" when the request
// never passed through it.
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}
