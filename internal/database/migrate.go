package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surrealdb/surrealdb.go"
)

// schema is applied at startup. Every statement is idempotent.
var schema = []string{
	"DEFINE INDEX IF NOT EXISTS user_email ON TABLE user FIELDS email UNIQUE",
	"DEFINE INDEX IF NOT EXISTS message_room ON TABLE message FIELDS room, createdAt",
}

// Migrate applies the schema statements the stores rely on.
func Migrate(ctx context.Context, conn DBConnection) error {
	ctx, cancel := getTimeoutFromContext(ctx, conn.GetDBExecuteTimeout(), ContextKeyExecuteTimeout)
	defer cancel()

	return conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		for _, stmt := range schema {
			if err := Execute(ctx, db, stmt, nil); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		slog.InfoContext(ctx, "Database schema applied", "event", "db_schema_applied", "statements", len(schema))
		return nil
	})
}
