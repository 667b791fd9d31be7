//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests get a migrated connection from GetTestDBWithT, which skips the test
// when no database URL is configured, and run their statements inside
// WithTx so that everything is rolled back afterwards:
//
//	func TestAttemptStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        attempts := postgres.NewPostgresAttemptStore(tx, nil)
//	        ...
//	    })
//	}
//
// The URL is read from DATABASE_URL and then MOCKVIEW_TEST_DB_URL.
package testdb
