package files

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/godraft/internal/agent"
	"github.com/mwantia/godraft/internal/retention"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/spf13/cobra"
)

var ErrInvalidDays = errors.New("the number of days must be greater than 0")

func NewCleanupDraftCommand() *cobra.Command {
	var days int
	var component string

	cmd := &cobra.Command{
		Use:   "cleanup-draft",
		Short: "Delete old draft files",
		Long:  "Deletes draft files older than the given number of days (default 7) and releases their content.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return ErrInvalidDays
			}

			return withServices(cmd.Context(), func(ctx context.Context, services *agent.Services) error {
				_, err := runCleanup(ctx, cmd.OutOrStdout(), services.Sweeper, days, component)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 7, "Delete files older than the given number of days")
	cmd.Flags().StringVarP(&component, "component", "c", models.DraftComponent, "Component to clean up")

	return cmd
}

func runCleanup(ctx context.Context, out io.Writer, sweeper *retention.Sweeper, days int, component string) (int, error) {
	if days < 1 {
		return 0, ErrInvalidDays
	}

	fmt.Fprintf(out, "Cleaning up draft files older than %d days for component '%s'...\n", days, component)

	result, err := sweeper.Sweep(ctx, agent.MaxAge(days), component)
	if err != nil {
		if result.Deleted > 0 {
			fmt.Fprintf(out, "Deleted files: %d\n", result.Deleted)
		}
		return result.Deleted, fmt.Errorf("failed to clean up files: %w", err)
	}

	if result.Deleted > 0 {
		fmt.Fprintf(out, "Deleted files: %d\n", result.Deleted)
	} else {
		fmt.Fprintln(out, "No files to delete were found")
	}

	return result.Deleted, nil
}
