package testdb

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/migrations"
)

const opTimeout = 10 * time.Second

// TestDB is a connection scoped to a throwaway namespace
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var counter atomic.Int64

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func uniqueNamespace() string {
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter.Add(1))
}

// New connects to the test server and applies migrations in a fresh namespace.
// The test is skipped when TEST_DB_HOST is unset.
func New(t *testing.T) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set; skipping SurrealDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := database.Config{
		Host:      host,
		Port:      envOr("TEST_DB_PORT", "8000"),
		User:      envOr("TEST_DB_USER", "root"),
		Password:  envOr("TEST_DB_PASSWORD", "root"),
		Namespace: uniqueNamespace(),
		Database:  "test",
	}

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace, Database: cfg.Database, t: t}
	t.Cleanup(tdb.Close)

	if _, err := database.Migrate(ctx, db, migrations.FS); err != nil {
		t.Fatalf("testdb: %v", err)
	}
	return tdb
}

// Close removes the namespace and closes the connection
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Reset deletes every row while keeping table definitions
func (tdb *TestDB) Reset() {
	tdb.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	results, err := tdb.DB.Query(ctx, "INFO FOR DB", nil)
	if err != nil {
		tdb.t.Fatalf("testdb: failed to get db info: %v", err)
	}
	info, err := database.FirstRecord(results)
	if err != nil {
		return
	}
	m, ok := info.(map[string]interface{})
	if !ok {
		return
	}
	tables, _ := m["tables"].(map[string]interface{})
	for name := range tables {
		if err := tdb.DB.Execute(ctx, fmt.Sprintf("DELETE FROM %s", name), nil); err != nil {
			tdb.t.Logf("testdb: failed to clear table %s: %v", name, err)
		}
	}
}

// Ctx returns a context bounded by the test's lifetime and a timeout
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustQuery runs a query and fails the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// Count returns the number of rows in a table
func (tdb *TestDB) Count(table string) int {
	tdb.t.Helper()
	results := tdb.MustQuery(fmt.Sprintf("SELECT count() AS count FROM %s GROUP ALL", table), nil)
	rec, err := database.FirstRecord(results)
	if err != nil {
		return 0
	}
	m, ok := rec.(map[string]interface{})
	if !ok {
		return 0
	}
	switch n := m["count"].(type) {
	case float64:
		return int(n)
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// RequireRecord fails the test unless the "table:id" record exists
func (tdb *TestDB) RequireRecord(id string) {
	tdb.t.Helper()
	results := tdb.MustQuery("SELECT * FROM type::record($id)", map[string]interface{}{"id": id})
	if _, err := database.FirstRecord(results); err != nil {
		tdb.t.Fatalf("testdb: expected record %s to exist: %v", id, err)
	}
}
