// Package migrations embeds the SurrealQL schema applied by cmd/seed and the
// integration-test harness. Files run in name order.
package migrations

import "embed"

//go:embed *.surql
var FS embed.FS
