package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest extracts the originating client IP. Proxy headers are checked
// in order of trust, falling back to the socket address: CF-Connecting-IP,
// X-Forwarded-For (first valid entry), X-Real-IP, RemoteAddr. Every
// candidate is parsed; a spoofed garbage header can never displace a valid
// source further down the chain.
func FromRequest(r *http.Request) string {
	if ip := normalize(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, candidate := range strings.Split(forwarded, ",") {
			if ip := normalize(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize parses and canonicalizes an IP string, returning "" for
// anything net.ParseIP rejects.
func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
