package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/forgo/finance-fixtures/internal/database"
)

var _ Store = (*SurrealStore)(nil)

// SurrealStore implements Store over SurrealDB.
// Foreign keys are stored as record links and read back as "table:id" strings.
type SurrealStore struct {
	db database.Database
}

// NewSurrealStore creates a store over an open database connection
func NewSurrealStore(db database.Database) *SurrealStore {
	return &SurrealStore{db: db}
}

// recordKey generates a client-side record key for statements batched in one transaction
func recordKey() string {
	return "k" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SeededTables lists every table the fixture builder writes, parents last
var SeededTables = []string{
	"escrow_funding", "deposit", "manual_payment", "payment", "appointment",
	"cardholder", "site_coordinator", "site_study", "site", "study",
	"funding", "address", "stateprovince", "country", "program",
	"funding_source", "user",
}

// Reset deletes every row of SeededTables in one transaction; table
// definitions and indexes stay
func (s *SurrealStore) Reset(ctx context.Context) error {
	batch := database.NewAtomicBatch()
	for _, table := range SeededTables {
		batch.Add("DELETE "+table, nil)
	}
	if err := batch.Execute(ctx, s.db); err != nil {
		return fmt.Errorf("failed to reset fixtures: %w", err)
	}
	return nil
}
