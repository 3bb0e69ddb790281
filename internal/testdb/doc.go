// Package testdb provides helpers for tests that run against a real
// Postgres database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can share one database without cleaning up:
//
//	func TestUserStore(t *testing.T) {
//	    db := testdb.Open(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Open skips the test when TASKSYNC_TEST_DATABASE_URL is unset. Tests that
// use it carry the integration build tag.
package testdb
