package auth

import (
	"net/http"
)

// Middleware resolves the caller and injects the Identity into the request
// context. Every route behind it can read the identity with
// IdentityFromContext; none should re-resolve.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := rs.Resolve(r.Context(), r)
		if id.TokenRefreshed != "" {
			w.Header().Set("X-Refreshed-Token", id.TokenRefreshed)
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAuth rejects anonymous requests with 401. It is the single
// authentication predicate; handlers behind it can assume a non-nil account.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not admin-capable or lack a live
// step-up grant. A capable admin without step-up gets a step-up prompt, not
// a flat denial.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		switch {
		case !id.IsAuthenticated():
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
		case !id.AdminCapable:
			writeError(w, http.StatusForbidden, ErrForbidden)
		case !id.StepUpSatisfied:
			writeError(w, http.StatusForbidden, &StepUpRequiredError{})
		default:
			next.ServeHTTP(w, r)
		}
	})
}
