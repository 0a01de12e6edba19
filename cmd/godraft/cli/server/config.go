package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	config "github.com/mwantia/godraft/internal/config/server"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management utilities",
		Long: `Manage GoDraft Agent configuration files.

This command provides utilities for generating configuration files
for different environments.`,
	}

	cmd.AddCommand(newConfigGenerateCommand())

	return cmd
}

func newConfigGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate example configuration files",
		Long: `Generate an example configuration file containing every default.

The generated file can be customized for your specific deployment
requirements and passed to the agent with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			_, err := generateConfig(cmd.OutOrStdout(), outputDir, overwrite)
			return err
		},
	}

	cmd.Flags().String("output", ".", "output directory for configuration files")
	cmd.Flags().Bool("overwrite", false, "overwrite existing files")

	return cmd
}

// generateConfig writes godraft.yaml into outputDir and reports whether the
// file was written.
func generateConfig(out io.Writer, outputDir string, overwrite bool) (bool, error) {
	fmt.Fprintf(out, "Generating configuration files (output: %s)\n", outputDir)

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(outputDir, "godraft.yaml")

	if _, err := os.Stat(filename); err == nil && !overwrite {
		fmt.Fprintf(out, "Skipping %s (file exists, use --overwrite to replace)\n", filename)
		return false, nil
	}

	cfg := config.GetServerDefault()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	fmt.Fprintf(out, "Generated %s\n", filename)
	fmt.Fprintln(out, "Configuration generation complete!")
	return true, nil
}
