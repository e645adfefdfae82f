package config

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir: "data",
		},
		Database: DatabaseConfig{
			Path: "warehouse.db",
		},
		Freshness: FreshnessConfig{
			WarnAfterHours:  24,
			ErrorAfterHours: 48,
		},
		Economics: EconomicsConfig{
			DefaultCAC: 35,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
