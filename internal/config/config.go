package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Daemon      DaemonConfig  `toml:"daemon"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings for the portal itself.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// DaemonConfig contains settings for the Loom daemon the portal fronts.
type DaemonConfig struct {
	URL      string `toml:"url"`
	BasePath string `toml:"base_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies LOOM_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LOOM_ENVIRONMENT"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("LOOM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LOOM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("LOOM_DAEMON_URL"); url != "" {
		config.Daemon.URL = url
	}
	if basePath := os.Getenv("LOOM_DAEMON_BASE_PATH"); basePath != "" {
		config.Daemon.BasePath = basePath
	}
	if level := os.Getenv("LOOM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsDevMode reports whether the portal runs with dev conveniences enabled.
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// Validate checks mandatory configuration and returns a list of issues.
// An empty list means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if c.Daemon.URL == "" {
		issues = append(issues, "daemon.url is required (the Loom daemon the portal connects to)")
	}
	if c.Daemon.BasePath != "" && !strings.HasPrefix(c.Daemon.BasePath, "/") {
		issues = append(issues, fmt.Sprintf("daemon.base_path must start with / (got %q)", c.Daemon.BasePath))
	}
	return issues
}
