package core

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the users table when it does not exist yet.
func EnsureSchema(ctx context.Context, conn *ConnectionProvider) error {
	pool, err := conn.Conn(ctx)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
