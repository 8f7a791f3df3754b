package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/jwt"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/session"
)

// DefaultJWTCookieName is the cookie carrying a bearer token for browser
// clients. The token is self-authenticating, so the cookie is not signed.
const DefaultJWTCookieName = "fx_jwt"

// AccountSource loads accounts for identity resolution. Satisfied by
// account.Service.
type AccountSource interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
}

// Resolver turns an incoming request into an Identity. Precedence is fixed:
// a valid bearer token (Authorization header over the JWT cookie) wins over
// the session, and the session wins over anonymous. A present-but-invalid
// bearer falls through to the session check rather than masking a valid
// session.
type Resolver struct {
	issuer        *jwt.Issuer
	sessions      *session.Manager
	accounts      AccountSource
	log           *slog.Logger
	jwtCookieName string
	refreshWithin time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// WithJWTCookieName overrides the bearer cookie name.
func WithJWTCookieName(name string) ResolverOption {
	return func(r *Resolver) { r.jwtCookieName = name }
}

// WithTokenRefresh enables sliding expiration: tokens with less than the
// given remaining lifetime are re-issued and returned on the Identity.
func WithTokenRefresh(within time.Duration) ResolverOption {
	return func(r *Resolver) { r.refreshWithin = within }
}

// NewResolver creates a Resolver.
func NewResolver(issuer *jwt.Issuer, sessions *session.Manager, accounts AccountSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		issuer:        issuer,
		sessions:      sessions,
		accounts:      accounts,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		jwtCookieName: DefaultJWTCookieName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve identifies the caller. Resolution is total and never returns an
// error: any failure along the way degrades to the next source, ending at
// anonymous.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request) Identity {
	if raw := rs.bearerToken(r); raw != "" {
		if id, ok := rs.resolveBearer(ctx, r, raw); ok {
			return id
		}
		// Invalid bearer tokens are logged and ignored so an expired token
		// in a stale cookie cannot lock out a caller with a valid session.
		rs.log.DebugContext(ctx, "bearer token rejected, falling through to session",
			logger.Component("auth"))
	}

	if id, ok := rs.resolveSession(ctx, r); ok {
		return id
	}
	return anonymous()
}

// bearerToken extracts the raw token, header first, JWT cookie second.
func (rs *Resolver) bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// A non-Bearer Authorization header (Basic, Digest) is not ours to
	// interpret; the JWT cookie still applies.
	if c, err := r.Cookie(rs.jwtCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (rs *Resolver) resolveBearer(ctx context.Context, r *http.Request, raw string) (Identity, bool) {
	claims, err := rs.issuer.Verify(raw)
	if err != nil {
		return Identity{}, false
	}

	acct, err := rs.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		// Token outlived the account. Treat it as invalid.
		return Identity{}, false
	}

	id := Identity{
		Kind:         KindAuthenticated,
		Account:      acct,
		AdminCapable: acct.IsAdmin,
	}

	// Step-up never rides on the token itself. It is honored only when the
	// same account also holds a session with a live grant.
	if sess, err := rs.sessions.Get(ctx, r); err == nil &&
		sess.IsAuthenticated() && *sess.AccountID == acct.ID {
		id.StepUpSatisfied = sess.AdminStepUp
	}

	if rs.refreshWithin > 0 && time.Until(time.Unix(claims.ExpiresAt, 0)) < rs.refreshWithin {
		if refreshed, err := rs.issuer.Refresh(claims); err == nil {
			id.TokenRefreshed = refreshed
		}
	}

	return id, true
}

func (rs *Resolver) resolveSession(ctx context.Context, r *http.Request) (Identity, bool) {
	sess, err := rs.sessions.Get(ctx, r)
	if err != nil || !sess.IsAuthenticated() {
		return Identity{}, false
	}

	acct, err := rs.accounts.GetByID(ctx, *sess.AccountID)
	if err != nil {
		return Identity{}, false
	}

	return Identity{
		Kind:            KindAuthenticated,
		Account:         acct,
		AdminCapable:    acct.IsAdmin,
		StepUpSatisfied: sess.AdminStepUp,
	}, true
}
