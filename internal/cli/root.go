// Package cli implements the sessiongate command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessiongate/internal/config"
	"github.com/mrlokans/sessiongate/internal/entrypoint"
)

// ConfigLoader returns the configuration for a command run.
type ConfigLoader func() *config.Config

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd(version string, loadConfig ConfigLoader) *cobra.Command {
	if loadConfig == nil {
		loadConfig = config.NewConfig
	}

	cmd := &cobra.Command{
		Use:   "sessiongate",
		Short: "Session-authentication gateway",
		Long: `sessiongate registers users, verifies their passwords and keeps
server-side sessions in SQLite or Redis. Configuration is read from the
environment (PORT, DATABASE_PATH, AUTH_*, SESSION_*).`,
		Version:       version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return entrypoint.Run(loadConfig(), version)
		},
	}

	cmd.AddCommand(NewServeCmd(version, loadConfig))
	cmd.AddCommand(NewCreateUserCmd(loadConfig))
	cmd.AddCommand(NewListUsersCmd(loadConfig))

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(version string, loadConfig ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return entrypoint.Run(loadConfig(), version)
		},
	}
}
