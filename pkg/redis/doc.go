// Package redis provides connection bootstrapping for the shared Redis
// instance backing session and one-time-code stores, with startup retries
// and a health probe.
package redis
