// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, a health probe, and error
// classification helpers used by storage code.
package pg
