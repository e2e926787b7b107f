package cli

import (
	"errors"
	"fmt"
	"os"

	"resume-builder/internal/infrastructure/migration"
	infra "resume-builder/pkg/infrastructure"

	"github.com/spf13/cobra"
)

type MigrateOptions struct {
	*RootOptions
	DatabaseURL string
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Create or update the resumes table",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.DatabaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			logger := opts.logger()
			defer func() { _ = logger.Sync() }()

			pool, err := infra.NewResumesPool(cmd.Context(), opts.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()
			if err := migration.RunMigrations(cmd.Context(), pool, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", len(migration.Migrations))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	return cmd
}
