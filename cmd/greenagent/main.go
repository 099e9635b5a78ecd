package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	rootLogLevel string
	rootLogJSON  bool
)

// rootCmd is the base command for the green agent CLI
var rootCmd = &cobra.Command{
	Use:   "greenagent",
	Short: "FINRA data assessment agent",
	Long: `greenagent grades a candidate agent's answers about FINRA equity
short-interest, weekly-summary, and treasury daily-aggregate datasets.

It sends each assessment case to the candidate over HTTP, parses the
JSON answer, and verifies dataset selection, attempt counts, date
resolution, and reported metric values.`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("greenagent - candidate assessment runner")
		fmt.Println("Use 'greenagent assess' to run an assessment")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&rootLogJSON, "log-json", false, "Emit structured JSON logs instead of console output")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(rootLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", rootLogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if !rootLogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
