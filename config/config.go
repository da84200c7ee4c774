// Package config carries the Node Graph Runtime's operator-facing settings:
// tick interval, watchdog thresholds, dispatcher clock-skew policy, and the
// optional host add-ons (loader hot-reload, audit trail, websocket server) that
// cmd/stagectl wires up. It layers TOML/YAML files, environment variables,
// and in-process defaults through github.com/spf13/viper, the same way the
// teacher repo's own configuration package does.
package config

import "time"

// Config is the top-level settings tree, unmarshaled from viper via
// mapstructure tags exactly as the teacher repo's am.Config is.
type Config struct {
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Server   ServerConfig   `mapstructure:"server"`
	LogTheme string         `mapstructure:"log_theme"`
}

// RuntimeConfig configures the tick loop (§4.3/§5).
type RuntimeConfig struct {
	TickIntervalMS int `mapstructure:"tick_interval_ms"` // wall-clock period between ticks
}

// TickInterval returns TickIntervalMS as a time.Duration.
func (r RuntimeConfig) TickInterval() time.Duration {
	return time.Duration(r.TickIntervalMS) * time.Millisecond
}

// WatchdogConfig configures the three watchdogs of §4.5.
type WatchdogConfig struct {
	BurstWindowMS       int     `mapstructure:"burst_window_ms"`       // passed to the runtime as its oscillation span; the sink-burst check is per tick
	BurstThreshold      int     `mapstructure:"burst_threshold"`       // sink values in one tick that trip RuntimeBurst
	OscillationWindow   int     `mapstructure:"oscillation_window"`    // ticks of history kept per node for signature comparison
	OscillationRepeats  int     `mapstructure:"oscillation_repeats"`   // validated only; the runtime's oscillation run length is fixed
	QuantizeDecimals    int     `mapstructure:"quantize_decimals"`     // validated only; signatures are always quantized to 2 decimals (§9)
	CompileRetryBackoff float64 `mapstructure:"compile_retry_backoff"` // validated only; a RuntimeCompileError halts the runtime with no retry
}

// DispatchConfig configures the command dispatcher (§4.10).
type DispatchConfig struct {
	MaxClockSkewMS  int `mapstructure:"max_clock_skew_ms"`  // executeAt clamp window around now
	TravelBudgetMS  int `mapstructure:"travel_budget_ms"`   // how far into the future executeAt may reasonably sit
}

// LoaderConfig configures internal/loader's graph snapshot loading.
type LoaderConfig struct {
	GraphPath    string `mapstructure:"graph_path"`    // local path or http(s) URL to a GraphState snapshot
	HotReload    bool   `mapstructure:"hot_reload"`    // watch GraphPath (when local) with fsnotify and reload on change
	Format       string `mapstructure:"format"`        // "json" or "yaml"; empty infers from GraphPath's extension
}

// AuditConfig configures internal/audit's optional SQLite command trail.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// ServerConfig configures cmd/stagectl's reference websocket host.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
