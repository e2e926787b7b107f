package migration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations is the ordered list applied on startup. Each step is
// idempotent.
var Migrations = []Migration{
	{
		Name: "create_resumes",
		SQL: `
		CREATE TABLE IF NOT EXISTS resumes (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			content    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	{
		Name: "index_resumes_user_updated",
		SQL:  `CREATE INDEX IF NOT EXISTS resumes_user_updated_idx ON resumes (user_id, updated_at DESC);`,
	},
}

// RunMigrations executes all migrations in one transaction.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("starting database migrations", zap.Int("count", len(Migrations)))

	err := pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, m := range Migrations {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				logger.Error("migration failed", zap.String("name", m.Name), zap.Error(err))
				return fmt.Errorf("migration %s: %w", m.Name, err)
			}
			logger.Info("migration completed", zap.String("name", m.Name))
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("all migrations completed successfully")
	return nil
}
