package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport delivers session tokens in a request/response header,
// for API clients that do not keep a cookie jar. On responses the token
// is written back in the same header, with the expiry mirrored in a
// companion "<header>-Expires" header so clients know when to renew.
type HeaderTransport struct {
	headerName string
	prefix     string
}

// HeaderOption configures a HeaderTransport.
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix overrides the value prefix. An empty prefix means the
// header carries the bare token.
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// NewHeaderTransport creates a header-based transport. The default prefix
// is "Bearer ".
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{
		headerName: headerName,
		prefix:     "Bearer ",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetToken extracts the session token from the request header. A header
// that is absent, or present without the configured prefix, yields
// ErrSessionNotFound.
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := r.Header.Get(t.headerName)
	if value == "" {
		return "", ErrSessionNotFound
	}
	token, ok := strings.CutPrefix(value, t.prefix)
	if !ok || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken writes the session token to the response header.
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set(t.headerName, t.prefix+token)
	if ttl > 0 {
		w.Header().Set(t.headerName+"-Expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

// ClearToken removes the session headers from the response.
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.headerName)
	w.Header().Del(t.headerName + "-Expires")
	return nil
}
