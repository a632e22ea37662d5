// Package postgres stores run history in PostgreSQL using pgx.
//
// It is selected with storage.driver = "postgres" and storage.dsn. Saved
// sweeps stay in the local SQLite store; only aggregates are written here so
// several machines can share one run history.
package postgres
