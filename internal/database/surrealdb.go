package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

var _ Database = (*SurrealDB)(nil)

// SurrealDB is a Database backed by a websocket connection to SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB returns an unconnected client; call Connect before use
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect signs in as the configured root user and selects namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.config.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnection, s.config.Endpoint(), err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin as %s: %v", ErrConnection, s.config.User, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}

	s.db = db
	return nil
}

// Close closes the connection if one is open
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close(context.Background())
	s.db = nil
	return err
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query runs every statement in query and returns one {status, result} map per statement.
// The first failed statement aborts with ErrDuplicate for unique index violations
// and ErrQuery otherwise.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for i, r := range *results {
		if r.Status != "OK" {
			msg := "statement failed"
			if r.Error != nil {
				msg = r.Error.Message
			}
			return nil, fmt.Errorf("statement %d: %w", i+1, classifyError(msg))
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return output, nil
}

// QueryOne returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a mutation and discards its results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// classifyError maps a server error message onto the package sentinels
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already contains"),
		strings.Contains(lower, "already exists"),
		strings.Contains(lower, "unique"),
		strings.Contains(lower, "duplicate"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	case strings.Contains(lower, "transaction") && strings.Contains(lower, "not executed"):
		// Statements cancelled because an earlier one in the same batch failed
		return fmt.Errorf("%w: batch rolled back: %s", ErrQuery, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}

// FirstRecord unwraps the {status: "OK", result: [...]} envelope of the first
// statement and returns its first record. An empty result is ErrNotFound.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return results[0], nil
	}
	if status, ok := resp["status"].(string); !ok || status != "OK" {
		return resp, nil
	}
	switch data := resp["result"].(type) {
	case nil:
		return nil, ErrNotFound
	case []interface{}:
		if len(data) == 0 {
			return nil, ErrNotFound
		}
		return data[0], nil
	default:
		// ONLY selects and INFO statements return a bare value
		return data, nil
	}
}
