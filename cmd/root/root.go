// Package root wires the command-line surface: a root command with shared
// --config/--log-level/--log-format flags, a default "serve" subcommand, and
// a "validate-config" subcommand for checking a configuration file without
// starting any listener.
package root

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docker/agent-skills/pkg/logging"
	"github.com/docker/agent-skills/pkg/serviceconfig"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    io.Closer
}

// NewRootCmd builds the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "agent-skills",
		Short: "agent-skills - skill-retrieval service for AI agents",
		Long:  "agent-skills indexes skill bundles from configured sources and serves them to agents over MCP and HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			closer, err := logging.Setup(cmd.ErrOrStderr(), logging.Options{
				Level:  flags.logLevel,
				Format: flags.logFormat,
			})
			if err != nil {
				return fmt.Errorf("setting up logging: %w", err)
			}
			flags.logFile = closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if flags.logFile != nil {
				if err := flags.logFile.Close(); err != nil {
					slog.Error("failed to close log file", "error", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &flags)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the configuration file (default: "+serviceconfig.Path()+")")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(newServeCmd(&flags))
	cmd.AddCommand(newValidateConfigCmd(&flags))

	return cmd
}

// Execute runs the root command to completion.
func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig resolves the effective configuration, layering explicitly-set
// --log-level/--log-format flags over whatever the config file itself sets,
// matching the CLI-flags-over-config-file precedence described in the
// configuration contract. Flags left at their default are not applied, so a
// config file's own log_level/log_format still take effect.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*serviceconfig.Config, error) {
	cfg, err := serviceconfig.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if _, err := logging.Setup(cmd.ErrOrStderr(), logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}
