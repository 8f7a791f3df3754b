// Package sanitizer normalizes untrusted input before validation and
// storage. Email normalization in particular must happen before any lookup
// so that the same mailbox always maps to the same account handle.
package sanitizer
