// Package cookie manages HTTP cookies with secure defaults (HttpOnly,
// SameSite=Lax, path "/") and HMAC-SHA256 signed values for anything the
// client must not be able to forge, such as the session identifier cookie.
//
// Secrets are a slice to support rotation: new cookies are signed with the
// first secret while reads verify against every configured secret, so old
// cookies stay valid during a rollover window.
package cookie
