package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/signalstage/core/errors"
)

// Load builds a Config by layering defaults, an optional stage.toml (TOML)
// in the working directory, and STAGE_-prefixed environment variables, in
// that precedence order
// (lowest to highest) — the same file/env layering shape as the teacher's
// am.Load, simplified to a single project-config lookup since this runtime
// has no per-user home-directory config tier to honor.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	v.SetConfigName("stage")
	v.AddConfigPath(".")
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, errors.Wrap(err, "failed to read stage config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from an explicit path instead of
// searching the working directory, for cmd/stagectl's --config flag.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
