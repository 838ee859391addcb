// Package repository persists the fixture graph.
//
// Store is the capability the fixture builder writes through. Two
// implementations exist:
//
//   - SurrealStore: SurrealQL over a database.Database connection
//   - memory.Store: an in-process twin for hermetic tests and dry runs
//
// # Query Patterns
//
// SurrealStore follows a few conventions:
//
//   - Parameterized queries with $variable syntax
//   - type::record() for links, read back as "table:id" strings
//   - Amounts sent as strings and cast with <decimal>, read back with <string>
//   - Times sent as RFC3339 strings and cast with <datetime>
//   - time::now() for server-side timestamps and inserted_on ordering
//
// A payment and its manual payment record are written in one
// BEGIN/COMMIT batch so neither exists without the other.
package repository
