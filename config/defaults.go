package config

import "github.com/spf13/viper"

// Default port constants, named the way the teacher names its server-port
// defaults (am/am.go).
const (
	DefaultServerPort        = 8877
	DefaultTickIntervalMS    = 33 // ~30Hz, a reasonable default for live-performance control signals
	DefaultBurstWindowMS     = 1000
	DefaultBurstThreshold    = 200
	DefaultOscillationWindow = 8
	DefaultOscillationRepeat = 4
	DefaultMaxClockSkewMS    = 250
	DefaultTravelBudgetMS    = 2000
)

// SetDefaults configures viper's default values for every setting, mirroring
// the teacher's am.SetDefaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("runtime.tick_interval_ms", DefaultTickIntervalMS)

	v.SetDefault("watchdog.burst_window_ms", DefaultBurstWindowMS)
	v.SetDefault("watchdog.burst_threshold", DefaultBurstThreshold)
	v.SetDefault("watchdog.oscillation_window", DefaultOscillationWindow)
	v.SetDefault("watchdog.oscillation_repeats", DefaultOscillationRepeat)
	v.SetDefault("watchdog.quantize_decimals", 2) // §9 decision: fixed at 2dp
	v.SetDefault("watchdog.compile_retry_backoff", 2.0)

	v.SetDefault("dispatch.max_clock_skew_ms", DefaultMaxClockSkewMS)
	v.SetDefault("dispatch.travel_budget_ms", DefaultTravelBudgetMS)

	v.SetDefault("loader.graph_path", "graph.yaml")
	v.SetDefault("loader.hot_reload", true)
	v.SetDefault("loader.format", "")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.db_path", "stagectl-audit.db")

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
	})

	v.SetDefault("log_theme", "console")
}

// BindEnvVars wires the settings an operator most plausibly wants to
// override per-deployment (ports, paths, audit toggle) to STAGE_-prefixed
// environment variables, the way the teacher explicitly binds a handful of
// sensitive/operational keys rather than relying on AutomaticEnv alone for
// everything.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("runtime.tick_interval_ms", "STAGE_TICK_INTERVAL_MS")
	v.BindEnv("loader.graph_path", "STAGE_GRAPH_PATH")
	v.BindEnv("audit.enabled", "STAGE_AUDIT_ENABLED")
	v.BindEnv("audit.db_path", "STAGE_AUDIT_DB_PATH")
	v.BindEnv("server.port", "STAGE_SERVER_PORT")
}
