package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/pevans/emargo/config"
	"github.com/spf13/cobra"
)

func main() {
	// Flag defaults come from the config file and EMARGO_* variables, so an
	// explicit flag always wins.
	settings, err := config.Load(os.Getenv("EMARGO_CONFIG"), os.Getenv)
	if err != nil {
		reportFailure(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&settings).ExecuteContext(ctx); err != nil {
		reportFailure(err)
		stop()
		os.Exit(1)
	}
}

// reportFailure logs a failed command through the default logger, which the
// root command configures once flags are parsed.
func reportFailure(err error) {
	log.Error("emargo failed", "err", err)
}

func newRootCmd(settings *config.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "emargo",
		Short:         "Scrape the emargo.pl item database into JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(settings.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
			}
			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
				Level:           level,
				ReportTimestamp: true,
			})
			log.SetDefault(logger)
			cmd.SetContext(log.WithContext(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "Log level: debug, info, warn, error (EMARGO_LOG_LEVEL)")

	rootCmd.AddCommand(newCrawlCmd(settings))
	rootCmd.AddCommand(newDecodeCmd(settings))

	return rootCmd
}
