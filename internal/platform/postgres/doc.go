// Package postgres implements the user, task and revocation stores on top of
// database/sql with the pgx driver, and embeds the goose migrations that
// create their tables.
package postgres
