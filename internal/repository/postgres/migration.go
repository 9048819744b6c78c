package postgres

import (
	"context"
	"embed"
	"fmt"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the schema for the connection's dialect. Every statement
// is idempotent.
func Migrate(ctx context.Context, db *DB) error {
	content, err := schemaFS.ReadFile("schema/" + db.driver + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %s: %w", db.driver, err)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
