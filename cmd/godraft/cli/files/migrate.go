package files

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mwantia/godraft/internal/agent"
	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/pkg/db/migrations"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func NewMigrateCommand() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply metadata migrations",
		Long:  "Applies all pending metadata store migrations and prints their status. With --rollback the last applied migration is reverted instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			ctx := cmd.Context()

			s, err := agent.ConnectMetadataStore(ctx, cfg.Metadata)
			if err != nil {
				return err
			}
			defer s.Close()

			return runMigrate(ctx, cmd.OutOrStdout(), s.DB(), rollback)
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "Revert the last applied migration")

	return cmd
}

func runMigrate(ctx context.Context, out io.Writer, db *gorm.DB, rollback bool) error {
	migrator := migrations.NewMigrator(db)

	if rollback {
		if err := migrator.Rollback(ctx); err != nil {
			return err
		}
	} else if err := migrator.Migrate(ctx); err != nil {
		return err
	}

	statuses, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	return printMigrations(out, statuses)
}

func printMigrations(out io.Writer, statuses []migrations.MigrationStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED\tDESCRIPTION")
	for _, status := range statuses {
		fmt.Fprintf(w, "%d\t%t\t%s\n", status.Version, status.Applied, status.Description)
	}
	return w.Flush()
}
