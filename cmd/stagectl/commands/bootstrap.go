package commands

import (
	"fmt"

	"github.com/signalstage/core/config"
	"github.com/signalstage/core/internal/loader"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

// loadConfig resolves a Config from an explicit --config path if given,
// falling back to the layered default (env > ./stage.toml > built-ins).
func loadConfig(explicitPath string) (*config.Config, error) {
	if explicitPath != "" {
		return config.LoadFromFile(explicitPath)
	}
	return config.Load()
}

// loadGraphState resolves a graph snapshot path, preferring an explicit
// --graph flag over the config's configured path.
func loadGraphState(cfg *config.Config, explicitPath string) (*node.GraphState, string, error) {
	path := cfg.Loader.GraphPath
	if explicitPath != "" {
		path = explicitPath
	}
	if path == "" {
		return nil, "", fmt.Errorf("no graph path given (set --graph or loader.graph_path in config)")
	}
	state, err := loader.Load(path, cfg.Loader.Format)
	if err != nil {
		return nil, path, err
	}
	return state, path, nil
}

// runtimeOptions translates a Config into runtime.Options shared by run and
// serve; onWatchdog/onTick are supplied by the caller since they differ
// (headless logging vs. dashboard update).
func runtimeOptions(cfg *config.Config, onTick func(int64, int64), onWatchdog func(runtime.WatchdogInfo)) runtime.Options {
	return runtime.Options{
		TickIntervalMs:       int64(cfg.Runtime.TickIntervalMS),
		MaxSinkValuesPerTick: cfg.Watchdog.BurstThreshold,
		OscillationWindow:    cfg.Watchdog.OscillationWindow,
		// BurstWindowMs doubles as the oscillation span: both describe "how
		// far back, in wall-clock ms, a watchdog looks before raising".
		OscillationSpanMs: int64(cfg.Watchdog.BurstWindowMS),
		OnTick:            onTick,
		OnWatchdog:        onWatchdog,
	}
}
