// Package cli defines the command-line interface for labctl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfir-lab/labctl/internal/logging"
)

const (
	// defaultConfigPath is the default path to the lab configuration file.
	defaultConfigPath = "lab.yaml"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	Namespace  string
	Release    string
	LogLevel   logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{
		ConfigPath: defaultConfigPath,
		LogLevel:   logging.LevelInfo,
	}

	var base baseEnv
	if err := parseEnv(&base); err != nil {
		return err
	}
	if base.ConfigPath != "" {
		rootOpts.ConfigPath = base.ConfigPath
	}
	if base.Namespace != "" {
		rootOpts.Namespace = base.Namespace
	}
	if base.Release != "" {
		rootOpts.Release = base.Release
	}

	rootCmd := newRootCommand(rootOpts, logger, base.LogLevel)
	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(ctx)
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger, defaultLevel string) *cobra.Command {
	if defaultLevel == "" {
		defaultLevel = "info"
	}

	cmd := &cobra.Command{
		Use:   "labctl",
		Short: "labctl deploys and operates a local digital-forensics lab",
		Long: "labctl orchestrates a local DFIR lab (Timesketch, OpenRelik, Yeti, HashR, Ollama) " +
			"on Minikube: it sequences the container engine, cluster creation, Terraform provisioning, " +
			"readiness polling, port-forwarding and credential retrieval.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to lab.yaml configuration file")
	cmd.PersistentFlags().StringVar(&opts.Namespace, "namespace", opts.Namespace, "Target Kubernetes namespace override")
	cmd.PersistentFlags().StringVar(&opts.Release, "release", opts.Release, "Helm release name override")
	cmd.PersistentFlags().String("log-level", defaultLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newDeployCommand(opts),
		newStatusCommand(opts),
		newStopCommand(opts),
		newForwardCommand(opts),
		newCredentialsCommand(opts),
		newTeardownCommand(opts),
		newDoctorCommand(opts),
		newBackupCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
