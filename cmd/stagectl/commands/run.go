package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/signalstage/core/internal/loader"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Tick a graph headlessly, with no client transport",
	Long: `Loads a graph and runs its tick loop with runtime.NopHost — useful for
exercising compute-only graphs, or for watching watchdog behavior under a
hand-edited snapshot, without standing up a WebSocket server.`,
	RunE: runRun,
}

func init() {
	RunCmd.Flags().String("config", "", "path to a stage.toml config file (overrides the layered default)")
	RunCmd.Flags().String("graph", "", "path or URL to a GraphState snapshot (overrides config)")
	RunCmd.Flags().Bool("hot-reload", false, "watch the graph file and reload on change")
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	graphPath, _ := cmd.Flags().GetString("graph")
	hotReload, _ := cmd.Flags().GetBool("hot-reload")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	state, resolvedPath, err := loadGraphState(cfg, graphPath)
	if err != nil {
		return err
	}

	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	printStartupBanner("headless run", resolvedPath, int64(cfg.Runtime.TickIntervalMS))

	rt := runtime.New(reg, runtime.NopHost{}, runtimeOptions(cfg,
		func(durationMs, timeMs int64) {},
		func(info runtime.WatchdogInfo) { printWatchdog(info) },
	))
	if err := rt.LoadGraph(state); err != nil {
		return err
	}

	if hotReload || cfg.Loader.HotReload {
		watcher, err := loader.NewWatcher(resolvedPath, cfg.Loader.Format, func(next *node.GraphState) error {
			if err := rt.LoadGraph(next); err != nil {
				return err
			}
			pterm.Info.Println("graph hot-reloaded")
			return nil
		})
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	rt.Start()
	defer rt.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			pterm.Info.Println("\nshutting down")
			return nil
		case <-ticker.C:
			pterm.Info.Printf("tick clock: %d nodes loaded\n", len(rt.ExportGraph().Nodes))
		}
	}
}

func printWatchdog(info runtime.WatchdogInfo) {
	switch info.Reason {
	case runtime.ReasonOscillation:
		pterm.Warning.Printf("oscillation: %s\n", info.Message)
	default:
		pterm.Error.Printf("%s: %s\n", info.Reason, info.Message)
	}
}
