// Package httpserver wraps net/http with graceful shutdown, environment
// driven configuration, lifecycle hooks, and health-check handlers.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal is
// received, then drains in-flight requests within the shutdown timeout.
package httpserver
