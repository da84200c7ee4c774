package commands

import (
	"github.com/pterm/pterm"

	"github.com/signalstage/core/internal/version"
)

// printStartupBanner prints the header shown at the top of run/serve output.
func printStartupBanner(title, graphPath string, tickIntervalMs int64) {
	pterm.DefaultHeader.WithFullWidth().Printf("stagectl - %s", title)
	pterm.Println()

	info := version.Get()
	pterm.Info.Printf("Version:       %s\n", info.Short())
	pterm.Info.Printf("Graph:         %s\n", graphPath)
	pterm.Info.Printf("Tick interval: %dms\n", tickIntervalMs)
	pterm.Println()
	pterm.Println(pterm.Gray("Press Ctrl+C to stop"))
	pterm.Println()
}
