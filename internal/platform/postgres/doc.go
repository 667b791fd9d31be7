// Package postgres provides PostgreSQL implementations of the row stores
// defined in internal/store (attempts, answers, questions, document chunks
// and feedback) together with the embedded goose migrations that create
// their tables.
//
// Every store accepts a store.DBTX so it can run against a *sql.DB or inside
// a caller-managed *sql.Tx, and maps driver errors onto the store sentinels
// with MapError.
package postgres
