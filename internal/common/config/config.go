// Package config provides configuration management for CodeCell.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for CodeCell.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Logging LoggingConfig `mapstructure:"logging"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// RunnerConfig holds execution supervisor configuration.
type RunnerConfig struct {
	// ScratchDir is the root directory for transient per-run artifacts.
	// Empty means the platform temp directory.
	ScratchDir string `mapstructure:"scratchDir"`

	// ToolchainFile optionally points to a YAML file overriding the
	// built-in language toolchain table.
	ToolchainFile string `mapstructure:"toolchainFile"`
}

// StorageConfig holds project persistence configuration.
type StorageConfig struct {
	DataDir string `mapstructure:"dataDir"` // project files, temp projects
	DBPath  string `mapstructure:"dbPath"`  // sqlite database for recents/templates
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// detectDefaultLogFormat returns "json" in production-like environments
// and "text" for terminal/development use.
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("CODECELL_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codecell"
	}
	return filepath.Join(home, ".codecell")
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "codecell")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	// Runner defaults - empty scratchDir means os.TempDir
	v.SetDefault("runner.scratchDir", "")
	v.SetDefault("runner.toolchainFile", "")

	// Storage defaults
	dataDir := defaultDataDir()
	v.SetDefault("storage.dataDir", dataDir)
	v.SetDefault("storage.dbPath", filepath.Join(dataDir, "codecell.db"))
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix CODECELL_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory
// or /etc/codecell/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CODECELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for camelCase config keys whose env var naming
	// differs from what AutomaticEnv derives.
	_ = v.BindEnv("runner.scratchDir", "CODECELL_RUNNER_SCRATCH_DIR")
	_ = v.BindEnv("runner.toolchainFile", "CODECELL_RUNNER_TOOLCHAIN_FILE")
	_ = v.BindEnv("storage.dataDir", "CODECELL_STORAGE_DATA_DIR")
	_ = v.BindEnv("storage.dbPath", "CODECELL_STORAGE_DB_PATH")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/codecell/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.Storage.DataDir == "" {
		errs = append(errs, "storage.dataDir must not be empty")
	}
	if cfg.Storage.DBPath == "" {
		errs = append(errs, "storage.dbPath must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
