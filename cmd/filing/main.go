// Command filing looks up SEC filings, prints their text and answers
// questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"filing_insight/pkg/app"
	"filing_insight/pkg/core/config"
	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		if errors.Is(err, edgar.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "not found: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "filing",
	Short:         "Locate SEC 10-K and 10-Q filings and ask questions about them",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.Logging.Level
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(cikCmd)
	rootCmd.AddCommand(filingCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(syncRegistryCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadApp builds the services behind every command that talks to SEC.
func loadApp(ctx context.Context) (*app.App, error) {
	a := app.New(ctx, cfg, logger)
	if err := a.LoadServices(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newApp builds the services without loading the company directory.
func newApp(cmd *cobra.Command) *app.App {
	return app.New(cmd.Context(), cfg, logger)
}
