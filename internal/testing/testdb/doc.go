// Package testdb opens an isolated SurrealDB namespace for integration tests.
//
// Tests that need a real database call New, which skips the test unless
// TEST_DB_HOST is set:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    store := repository.NewSurrealStore(tdb.DB)
//	    ...
//	}
//
// Each TestDB gets its own namespace with the embedded migrations applied
// through database.Migrate, the same path cmd/seed uses. The namespace is
// removed when the test finishes.
package testdb
