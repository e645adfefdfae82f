package config

// Config is the full warehouse configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Freshness FreshnessConfig `yaml:"freshness" mapstructure:"freshness"`
	Economics EconomicsConfig `yaml:"economics" mapstructure:"economics"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// DataConfig locates the raw CSV extracts.
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DatabaseConfig locates the materialized warehouse.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FreshnessConfig bounds acceptable source staleness, in hours.
type FreshnessConfig struct {
	WarnAfterHours  int `yaml:"warn_after_hours" mapstructure:"warn_after_hours"`
	ErrorAfterHours int `yaml:"error_after_hours" mapstructure:"error_after_hours"`
}

// EconomicsConfig parameterizes the unit-economics mart. Acquisition cost
// comes from finance, not the order history, so it is configured.
type EconomicsConfig struct {
	DefaultCAC float64            `yaml:"default_cac" mapstructure:"default_cac"`
	CACByState map[string]float64 `yaml:"cac_by_state" mapstructure:"cac_by_state"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig sets the log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}
