package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalstage/core/cmd/stagectl/commands"
	"github.com/signalstage/core/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stagectl",
	Short: "Reference host for the node graph runtime",
	Long: `stagectl is a reference embedder for the node graph runtime.

It loads a graph snapshot, registers the built-in node kind catalog, and
drives the tick loop, optionally exposing it to live performance clients over
a WebSocket transport.

Available commands:
  validate - compile a graph snapshot without running it
  run      - tick a graph headlessly, printing watchdog events
  serve    - run the graph and accept WebSocket client connections
  diff     - show the changes between two graph snapshots
  registry - list or describe the built-in node kind catalog
  version  - show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (repeat for more detail)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of human-readable ones")

	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DiffCmd)
	rootCmd.AddCommand(commands.RegistryCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = logger.Cleanup()
}
