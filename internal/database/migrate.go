package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
)

// Migrate runs every *.surql file of fsys in name order and returns the
// applied file names. Files must be safe to rerun.
func Migrate(ctx context.Context, db Database, fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.surql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(names)

	for i, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return names[:i], fmt.Errorf("reading %s: %w", name, err)
		}
		if err := db.Execute(ctx, string(content), nil); err != nil {
			return names[:i], fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return names, nil
}
