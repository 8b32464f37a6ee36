// Package main provides the entry point for the AlgoMentor API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/algomentor/internal/config"
	"github.com/jonathan/algomentor/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "algomentor",
	Short: "AlgoMentor competitive programming coach",
	Long: "AlgoMentor aggregates LeetCode, Codeforces and CodeChef activity into a unified tag profile, " +
		"recommends practice problems for weak areas and writes daily coaching feedback.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON instead of console output")
}

// loadConfig reads configuration and initializes logging for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logJSON {
		logging.InitJSON(cfg.LogLevel, os.Stderr)
	} else {
		logging.Init(cfg.LogLevel)
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
