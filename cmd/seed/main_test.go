package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/finance-fixtures/internal/fixtures"
)

// recordingDB records every query. Writes echo back a record and reads find nothing.
type recordingDB struct {
	queries []string
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }

func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.queries = append(r.queries, query)
	rows := []interface{}{}
	if !strings.HasPrefix(strings.TrimSpace(query), "SELECT") {
		rows = append(rows, map[string]interface{}{"id": "user:1"})
	}
	return []interface{}{map[string]interface{}{"status": "OK", "result": rows}}, nil
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	_, err := r.Query(ctx, query, vars)
	return nil, err
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

// firstIndex returns the index of the first query containing substr, or -1
func (r *recordingDB) firstIndex(substr string) int {
	for i, q := range r.queries {
		if strings.Contains(q, substr) {
			return i
		}
	}
	return -1
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPrepareSurreal_SchemaAndResetPrecedeWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := &recordingDB{}

	store, err := prepareSurreal(ctx, db, true, quietLogger())
	require.NoError(t, err)

	// Only the ordering of the first writes matters here
	_, _ = fixtures.NewBuilder(store, fixtures.WithLogger(quietLogger())).Build(ctx)

	define := db.firstIndex("DEFINE INDEX IF NOT EXISTS user_username")
	reset := db.firstIndex("DELETE user;")
	create := db.firstIndex("CREATE user")
	require.NotEqual(t, -1, define, "schema applied")
	require.NotEqual(t, -1, reset, "previous run deleted")
	require.NotEqual(t, -1, create, "build wrote a user")
	assert.Less(t, define, reset)
	assert.Less(t, reset, create)
}

func TestPrepareSurreal_KeepSkipsReset(t *testing.T) {
	t.Parallel()
	db := &recordingDB{}

	_, err := prepareSurreal(context.Background(), db, false, quietLogger())
	require.NoError(t, err)

	assert.NotEqual(t, -1, db.firstIndex("DEFINE TABLE IF NOT EXISTS user"))
	assert.Equal(t, -1, db.firstIndex("DELETE"))
}
