package files

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/godraft/internal/agent"
	config "github.com/mwantia/godraft/internal/config/server"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/mwantia/godraft/pkg/log"
	"github.com/spf13/cobra"
)

func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage stored files",
		Long:  "Manage the stored file records and their content.",
	}

	cmd.AddCommand(NewFilesListCommand())
	cmd.AddCommand(NewFilesRemoveCommand())
	cmd.AddCommand(NewCleanupDraftCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}

// withServices loads the configuration, opens the metadata store and runs
// fn with the services built on top of it.
func withServices(ctx context.Context, fn func(ctx context.Context, services *agent.Services) error) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := log.NewLoggerService("godraft", cfg.Log)
	if closer, ok := logger.(io.Closer); ok {
		defer closer.Close()
	}

	s, err := agent.OpenMetadataStore(ctx, cfg.Metadata)
	if err != nil {
		return err
	}
	defer s.Close()

	services, err := agent.NewServices(cfg, s, logger)
	if err != nil {
		return err
	}

	return fn(ctx, services)
}

func NewFilesListCommand() *cobra.Command {
	var humanReadable bool
	var longFormat bool

	cmd := &cobra.Command{
		Use:   "ls <component> <filearea> <itemid>",
		Short: "List file records",
		Long:  "List all file records stored at the given component, filearea and item id.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id '%s': %w", args[2], err)
			}

			return withServices(cmd.Context(), func(ctx context.Context, services *agent.Services) error {
				files, err := services.Store.ListFiles(ctx, args[0], args[1], itemID)
				if err != nil {
					return err
				}
				return printFiles(cmd.OutOrStdout(), files, humanReadable, longFormat)
			})
		},
	}

	cmd.Flags().BoolVarP(&humanReadable, "human", "H", false, "Enable human-readable format")
	cmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Display long format")

	return cmd
}

func printFiles(out io.Writer, files []models.File, humanReadable, longFormat bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for _, file := range files {
		size := strconv.FormatInt(file.FileSize, 10)
		if humanReadable {
			size = humanize.IBytes(uint64(file.FileSize))
		}

		if !longFormat {
			fmt.Fprintf(w, "%d\t%s\t%s\n", file.ID, size, file.FileName)
			continue
		}

		created := time.Unix(file.TimeCreated, 0).Format(time.DateTime)
		if humanReadable {
			created = humanize.Time(time.Unix(file.TimeCreated, 0))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			file.ID, size, orDash(file.Mime()), orDash(file.ContentHash), created, file.FileName)
	}

	return w.Flush()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func NewFilesRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a file record",
		Long:  "Removes a file record and deletes its content once no other record shares it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id '%s': %w", args[0], err)
			}

			return withServices(cmd.Context(), func(ctx context.Context, services *agent.Services) error {
				if err := services.Drafts.Delete(ctx, uint(id)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed file %d\n", id)
				return nil
			})
		},
	}

	return cmd
}
