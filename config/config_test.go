package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadIsolated(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaultsPopulateEverySection(t *testing.T) {
	cfg := loadIsolated(t)

	assert.Equal(t, DefaultTickIntervalMS, cfg.Runtime.TickIntervalMS)
	assert.Equal(t, DefaultBurstThreshold, cfg.Watchdog.BurstThreshold)
	assert.Equal(t, 2, cfg.Watchdog.QuantizeDecimals)
	assert.Equal(t, DefaultMaxClockSkewMS, cfg.Dispatch.MaxClockSkewMS)
	assert.True(t, cfg.Loader.HotReload)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "console", cfg.LogTheme)
}

func TestTickIntervalConvertsMillisecondsToDuration(t *testing.T) {
	cfg := loadIsolated(t)
	assert.Equal(t, int64(DefaultTickIntervalMS), cfg.Runtime.TickInterval().Milliseconds())
}

func TestValidateRejectsNonPositiveTickInterval(t *testing.T) {
	cfg := loadIsolated(t)
	cfg.Runtime.TickIntervalMS = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsAuditEnabledWithoutPath(t *testing.T) {
	cfg := loadIsolated(t)
	cfg.Audit.Enabled = true
	cfg.Audit.DBPath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := loadIsolated(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := loadIsolated(t)
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}
