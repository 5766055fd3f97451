// Package main provides the command-line entry point for the analytics
// dashboard: account commands, one-shot analytics queries, and a local API
// server for the browser front end.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vigility/dashboard/internal/infrastructure/observability"
	"github.com/vigility/dashboard/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are shared by every subcommand
type rootOptions struct {
	logLevel string
}

// buildRootCmd creates the root command with all subcommands attached
func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Product analytics dashboard",
		Long: `Query feature-usage analytics with per-user filters.

Filters you apply are remembered for your account and restored the next time
you sign in. Configuration is read from the environment or a .env file.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		buildLoginCmd(opts),
		buildRegisterCmd(opts),
		buildLogoutCmd(opts),
		buildWhoamiCmd(opts),
		buildForgotPasswordCmd(opts),
		buildResetPasswordCmd(opts),
		buildAnalyticsCmd(opts),
		buildFiltersCmd(opts),
		buildServeCmd(opts),
	)

	return rootCmd
}

// withApp loads configuration, wires the application and runs fn. Resources
// are released after fn returns and in-flight work has settled.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return err
	}
	defer a.close()

	return fn(ctx, a)
}
