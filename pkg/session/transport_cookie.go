package session

import (
	"net/http"
	"time"

	"github.com/vianajose7/faaxis/pkg/cookie"
)

// CookieTransport delivers session tokens in an HMAC-signed, HTTP-only,
// SameSite=Lax cookie. The signature means a forged or truncated cookie is
// rejected before a store lookup ever happens.
type CookieTransport struct {
	cookieMgr     *cookie.Manager
	cookieName    string
	secureCookies bool
}

// NewCookieTransport creates a cookie-based transport.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, secureCookies bool) *CookieTransport {
	return &CookieTransport{
		cookieMgr:     cookieMgr,
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

// GetToken extracts the session token from the signed cookie.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetSigned(r, t.cookieName)
	if err != nil {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken stores the session token in a signed cookie.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if t.secureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}

	return t.cookieMgr.SetSigned(w, t.cookieName, token, opts...)
}

// ClearToken removes the session cookie.
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName)
	return nil
}
