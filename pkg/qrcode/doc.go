// Package qrcode wraps github.com/skip2/go-qrcode with input validation and
// a data-URI helper for rendering authenticator provisioning codes in HTML.
package qrcode
