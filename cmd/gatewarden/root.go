package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/xdg"
)

const serviceName = "gatewarden"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Gatewarden CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatewarden",
		Short: "Gatewarden - session and credential authentication core",
		Long: `Gatewarden is a session-and-credential authentication core: password
hashing, opaque session tokens, and single-use password-reset tokens
over a SQL user table. The CLI carries the supporting infrastructure;
the core itself is consumed as a library by an HTTP layer.`,
	}

	// Global flags. Names mirror config keys so the posflag provider
	// overlays them directly.
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG config dir)")
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("logging.format", "", "log format: json or text")
	cmd.PersistentFlags().String("observability.addr", "", "metrics/health listen address")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig resolves configuration for a subcommand and installs the
// default logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = xdg.DefaultConfigPath()
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logging.SetDefault(serviceName, version, cfg.Logging.Format, cfg.Logging.RedactFields)
	return cfg, nil
}
