package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	newReq := func(remoteAddr string, headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remoteAddr
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	t.Run("remote addr fallback", func(t *testing.T) {
		t.Parallel()
		r := newReq("203.0.113.7:51334", nil)
		assert.Equal(t, "203.0.113.7", clientip.FromRequest(r))
	})

	t.Run("x-forwarded-for first valid entry", func(t *testing.T) {
		t.Parallel()
		r := newReq("10.0.0.1:80", map[string]string{
			"X-Forwarded-For": "198.51.100.9, 10.0.0.1",
		})
		assert.Equal(t, "198.51.100.9", clientip.FromRequest(r))
	})

	t.Run("garbage forwarded entry skipped", func(t *testing.T) {
		t.Parallel()
		r := newReq("10.0.0.1:80", map[string]string{
			"X-Forwarded-For": "not-an-ip, 198.51.100.9",
		})
		assert.Equal(t, "198.51.100.9", clientip.FromRequest(r))
	})

	t.Run("cloudflare header wins", func(t *testing.T) {
		t.Parallel()
		r := newReq("10.0.0.1:80", map[string]string{
			"CF-Connecting-IP": "203.0.113.50",
			"X-Forwarded-For":  "198.51.100.9",
		})
		assert.Equal(t, "203.0.113.50", clientip.FromRequest(r))
	})

	t.Run("ipv6 normalized", func(t *testing.T) {
		t.Parallel()
		r := newReq("[2001:db8::1]:443", nil)
		assert.Equal(t, "2001:db8::1", clientip.FromRequest(r))
	})

	t.Run("fully spoofed headers fall back to socket", func(t *testing.T) {
		t.Parallel()
		r := newReq("203.0.113.7:51334", map[string]string{
			"X-Forwarded-For": "<script>, junk",
			"X-Real-IP":       "999.999.999.999",
		})
		assert.Equal(t, "203.0.113.7", clientip.FromRequest(r))
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:51334"
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.Equal(t, "203.0.113.7", seen)

	assert.Empty(t, clientip.FromContext(r.Context()))
}
