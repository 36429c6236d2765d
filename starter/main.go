package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"megacoop-kyc/config"
	"megacoop-kyc/logging"
)

var (
	configPath string
	userID     string
)

// rootCmd is the entry point of the KYC starter
var rootCmd = &cobra.Command{
	Use:   "starter",
	Short: "Drive a Megacoop KYC verification session",
	Long: `Drive the Megacoop KYC verification wizard from the terminal.

Available subcommands:
  session - Start or attach to a KYC session workflow and drive it interactively
  local   - Run wizard actions directly against the backend with persisted state`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user the session belongs to (random when empty)")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(localCmd)
}

// setup loads the configuration and the logger shared by every subcommand.
func setup() (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, sync := logging.New(cfg.Logging)
	return cfg, logger, func() { _ = sync() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
