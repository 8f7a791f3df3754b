// Package logger builds configured slog.Logger instances with consistent
// attribute naming across services.
//
// The factory supports JSON and text formats, static service attributes, and
// context extractors that attach request-scoped values like request IDs to
// every record. Attribute helpers (Error, AccountID, Component) keep log
// field names uniform so aggregated logs stay queryable.
package logger
