package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFile is looked up when no explicit path is given.
const DefaultConfigFile = "warehouse.yaml"

var validLogLevels = []string{"debug", "info", "warning", "error"}

// Load reads configuration from path, falling back to DefaultConfigFile in
// the working directory, then applies SAMBA_* environment overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	v := viper.New()
	v.SetEnvPrefix("SAMBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv picks up SAMBA_* overrides even when no config file exists,
// since AutomaticEnv only resolves keys viper has seen.
func applyEnv(v *viper.Viper, cfg *Config) {
	if s := v.GetString("data.dir"); s != "" {
		cfg.Data.Dir = s
	}
	if s := v.GetString("database.path"); s != "" {
		cfg.Database.Path = s
	}
	if s := v.GetString("server.addr"); s != "" {
		cfg.Server.Addr = s
	}
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must be set")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Freshness.WarnAfterHours <= 0 || c.Freshness.ErrorAfterHours <= 0 {
		return fmt.Errorf("freshness thresholds must be positive")
	}
	if c.Freshness.WarnAfterHours > c.Freshness.ErrorAfterHours {
		return fmt.Errorf("freshness.warn_after_hours (%d) exceeds error_after_hours (%d)",
			c.Freshness.WarnAfterHours, c.Freshness.ErrorAfterHours)
	}
	if c.Economics.DefaultCAC < 0 {
		return fmt.Errorf("economics.default_cac must not be negative")
	}
	for state, cac := range c.Economics.CACByState {
		if cac < 0 {
			return fmt.Errorf("economics.cac_by_state[%s] must not be negative", state)
		}
	}

	level := strings.ToLower(c.Logging.Level)
	for _, l := range validLogLevels {
		if level == l {
			return nil
		}
	}
	return fmt.Errorf("logging.level %q not one of %s", c.Logging.Level, strings.Join(validLogLevels, ", "))
}
