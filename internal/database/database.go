// Package database wraps the SurrealDB client behind a small interface.
//
// Repositories depend on Database rather than the client so they can run
// against a scripted fake in unit tests. Every query returns one
// {status, result} map per statement; FirstRecord unwraps the common case.
//
// Multi-statement writes go through AtomicBatch, which sends a single
// BEGIN TRANSACTION / COMMIT TRANSACTION block (see transaction.go).
//
// Failures map onto four sentinels checked with errors.Is:
// ErrNotFound, ErrDuplicate, ErrConnection and ErrQuery.
package database

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record") // unique index violation
	ErrConnection = errors.New("database connection error")
	ErrQuery      = errors.New("query error")
)

// Database is the query surface repositories and test harnesses use
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query returns one {status, result} map per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	// QueryOne returns the first record of the first statement, or ErrNotFound
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	// Execute runs a mutation and discards its results
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config locates and authenticates against a SurrealDB server
type Config struct {
	Scheme    string // "ws" or "wss", defaults to "ws"
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint returns the websocket URL of the SurrealDB server
func (c Config) Endpoint() string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "ws"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, c.Host, c.Port)
}
