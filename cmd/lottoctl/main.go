// Command lottoctl is the operator CLI: local generation, sync control and
// schema migrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/lotto-engine/internal/app"
	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/version"
)

var (
	configPath string
	serverURL  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "lottoctl",
	Short:         "Operate a lotto engine instance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/lottod.local.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of a running lottod for remote commands")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd, generateCmd, syncCmd, migrateCmd)
}

// loadConfig reads the config file, or falls back to defaults when the
// file does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.LoadWithDefaults(configPath)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	lc := cfg.Logging
	lc.Level = logLevel
	return app.NewLogger(lc, os.Stderr)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
