package server

import (
	"fmt"

	"github.com/mwantia/godraft/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/godraft/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoDraft Agent",
		Long: `Start the GoDraft Agent.

The agent serves the upload widget endpoints, file downloads and metrics
over HTTP and periodically removes abandoned drafts when retention is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(cmd.Context())
		},
	}

	return cmd
}
