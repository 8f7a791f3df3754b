// Package clientip resolves the originating client address behind proxies.
// Auth events (logins, step-up grants) log it for audit trails.
package clientip
