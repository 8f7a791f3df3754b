package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/modules/auth"
	"github.com/vianajose7/faaxis/pkg/cookie"
	"github.com/vianajose7/faaxis/pkg/jwt"
	"github.com/vianajose7/faaxis/pkg/session"
)

const (
	testSigningSecret = "resolver-signing-secret"
	testCookieSecret  = "0123456789abcdef0123456789abcdef"
	testPassword      = "Tr4ding-Desk!"
	testTOTPKey       = "0123456789abcdef0123456789abcdef"
)

// harness bundles the collaborators a resolver needs, all in-memory.
type harness struct {
	accounts *account.Service
	storage  *account.MemoryStorage
	sessions *session.Manager
	issuer   *jwt.Issuer
	resolver *auth.Resolver
}

func newHarness(t *testing.T, resolverOpts ...auth.ResolverOption) *harness {
	t.Helper()

	storage := account.NewMemoryStorage()
	accounts, err := account.NewService(account.Config{
		VerificationSecret: "verification-secret",
		VerificationTTL:    24 * time.Hour,
		VerificationURL:    "http://localhost:8080/auth/verify",
		TOTPEncryptionKey:  testTOTPKey,
		TOTPIssuer:         "Faaxis",
	}, storage)
	require.NoError(t, err)

	cookieMgr, err := cookie.New([]string{testCookieSecret})
	require.NoError(t, err)
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.New(
		session.WithStore(store),
		session.WithTransport(session.NewCookieTransport(cookieMgr, "fx_sid", false)),
	)
	t.Cleanup(func() { _ = sessions.Close() })

	issuer, err := jwt.New(testSigningSecret)
	require.NoError(t, err)

	return &harness{
		accounts: accounts,
		storage:  storage,
		sessions: sessions,
		issuer:   issuer,
		resolver: auth.NewResolver(issuer, sessions, accounts, resolverOpts...),
	}
}

func (h *harness) register(t *testing.T, email string) *account.Account {
	t.Helper()
	acct, err := h.accounts.Register(context.Background(), email, testPassword)
	require.NoError(t, err)
	return acct
}

// loggedInRequest returns a request carrying a fresh authenticated session.
func (h *harness) loggedInRequest(t *testing.T, accountID int64) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	_, err := h.sessions.Authenticate(context.Background(), w, httptest.NewRequest(http.MethodGet, "/", nil), accountID)
	require.NoError(t, err)
	return requestWithCookies(w)
}

func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 && c.Value != "" {
			r.AddCookie(c)
		}
	}
	return r
}

func TestResolveAnonymous(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	id := h.resolver.Resolve(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, auth.KindAnonymous, id.Kind)
	assert.False(t, id.IsAuthenticated())
	assert.Zero(t, id.AccountID())
}

func TestResolveBearer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("authorization header", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "bearer@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, false, false)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
		assert.False(t, id.StepUpSatisfied)
	})

	t.Run("jwt cookie", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "cookie@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, false, false)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: auth.DefaultJWTCookieName, Value: token})

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
	})

	t.Run("non-bearer header does not mask jwt cookie", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "basic-auth@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, false, false)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		r.AddCookie(&http.Cookie{Name: auth.DefaultJWTCookieName, Value: token})

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		headerAcct := h.register(t, "header@example.com")
		cookieAcct := h.register(t, "cookied@example.com")

		headerToken, err := h.issuer.Issue(headerAcct.ID, headerAcct.Email, false, false)
		require.NoError(t, err)
		cookieToken, err := h.issuer.Issue(cookieAcct.ID, cookieAcct.Email, false, false)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+headerToken)
		r.AddCookie(&http.Cookie{Name: auth.DefaultJWTCookieName, Value: cookieToken})

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, headerAcct.ID, id.AccountID())
	})

	t.Run("token for deleted account is anonymous", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "gone@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, false, false)
		require.NoError(t, err)
		require.NoError(t, h.accounts.DeleteAccount(ctx, acct.ID))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		id := h.resolver.Resolve(ctx, r)
		assert.Equal(t, auth.KindAnonymous, id.Kind)
	})
}

func TestResolveSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("session identity", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "sessioned@example.com")
		r := h.loggedInRequest(t, acct.ID)

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
		assert.False(t, id.StepUpSatisfied)
	})

	t.Run("invalid bearer falls through to valid session", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "fallthrough@example.com")
		r := h.loggedInRequest(t, acct.ID)
		r.Header.Set("Authorization", "Bearer not.a.jwt")

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
	})

	t.Run("expired bearer falls through to valid session", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "stale@example.com")

		shortIssuer, err := jwt.New(testSigningSecret, jwt.WithTTL(time.Nanosecond))
		require.NoError(t, err)
		expired, err := shortIssuer.Issue(acct.ID, acct.Email, false, false)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		r := h.loggedInRequest(t, acct.ID)
		r.Header.Set("Authorization", "Bearer "+expired)

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.Equal(t, acct.ID, id.AccountID())
	})
}

func TestResolveStepUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// grantStepUp elevates the request's session and returns a request
	// carrying the rotated cookie.
	grantStepUp := func(t *testing.T, h *harness, r *http.Request) *http.Request {
		t.Helper()
		w := httptest.NewRecorder()
		_, err := h.sessions.GrantAdminStepUp(ctx, w, r)
		require.NoError(t, err)
		return requestWithCookies(w)
	}

	t.Run("session flag carried to identity", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "elevated@example.com")
		r := grantStepUp(t, h, h.loggedInRequest(t, acct.ID))

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.True(t, id.StepUpSatisfied)
	})

	t.Run("bearer identity reads step-up from own session only", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "token-elevated@example.com")
		other := h.register(t, "another-admin@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, true, false)
		require.NoError(t, err)

		// Same account: the token identity inherits the session grant.
		r := grantStepUp(t, h, h.loggedInRequest(t, acct.ID))
		r.Header.Set("Authorization", "Bearer "+token)
		id := h.resolver.Resolve(ctx, r)
		assert.True(t, id.StepUpSatisfied)

		// Someone else's elevated session grants this token nothing.
		r = grantStepUp(t, h, h.loggedInRequest(t, other.ID))
		r.Header.Set("Authorization", "Bearer "+token)
		id = h.resolver.Resolve(ctx, r)
		assert.Equal(t, acct.ID, id.AccountID())
		assert.False(t, id.StepUpSatisfied)
	})

	t.Run("bearer token alone never satisfies step-up", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		acct := h.register(t, "token-only@example.com")

		token, err := h.issuer.Issue(acct.ID, acct.Email, true, false)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		id := h.resolver.Resolve(ctx, r)
		require.True(t, id.IsAuthenticated())
		assert.False(t, id.StepUpSatisfied)
	})
}

func TestResolveTokenRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t, auth.WithTokenRefresh(30*24*time.Hour))
	acct := h.register(t, "refresh@example.com")

	token, err := h.issuer.Issue(acct.ID, acct.Email, false, false)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	id := h.resolver.Resolve(ctx, r)
	require.True(t, id.IsAuthenticated())
	require.NotEmpty(t, id.TokenRefreshed)

	claims, err := h.issuer.Verify(id.TokenRefreshed)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.AccountID)
}
