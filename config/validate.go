package config

import "github.com/signalstage/core/errors"

// Validate checks the loaded configuration for values that would make the
// runtime or its watchdogs behave nonsensically, the way the teacher's
// am.Config.Validate guards Pulse's worker/interval counts.
func (c *Config) Validate() error {
	if c.Runtime.TickIntervalMS <= 0 {
		return errors.Newf("runtime.tick_interval_ms must be > 0, got %d", c.Runtime.TickIntervalMS)
	}
	if c.Watchdog.BurstWindowMS <= 0 {
		return errors.Newf("watchdog.burst_window_ms must be > 0, got %d", c.Watchdog.BurstWindowMS)
	}
	if c.Watchdog.BurstThreshold <= 0 {
		return errors.Newf("watchdog.burst_threshold must be > 0, got %d", c.Watchdog.BurstThreshold)
	}
	if c.Watchdog.OscillationWindow <= 0 {
		return errors.Newf("watchdog.oscillation_window must be > 0, got %d", c.Watchdog.OscillationWindow)
	}
	if c.Watchdog.OscillationRepeats <= 0 {
		return errors.Newf("watchdog.oscillation_repeats must be > 0, got %d", c.Watchdog.OscillationRepeats)
	}
	if c.Dispatch.MaxClockSkewMS < 0 {
		return errors.Newf("dispatch.max_clock_skew_ms must be >= 0, got %d", c.Dispatch.MaxClockSkewMS)
	}
	if c.Dispatch.TravelBudgetMS < 0 {
		return errors.Newf("dispatch.travel_budget_ms must be >= 0, got %d", c.Dispatch.TravelBudgetMS)
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return errors.Newf("audit.db_path cannot be empty when audit.enabled is true")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}
	return nil
}
