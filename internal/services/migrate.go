package services

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Migrate creates the backend tables and the profile trigger if they
// don't exist yet.
func Migrate(ctx context.Context, pgPool *pgxpool.Pool) error {
	_, err := pgPool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
