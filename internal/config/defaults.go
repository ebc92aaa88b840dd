package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4361,
			Host: "localhost",
		},
		Daemon: DaemonConfig{
			URL:      "http://localhost:4362",
			BasePath: "/api",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console", "file"},
		},
	}
}
