// Package config loads CLI defaults for cmd/shmctl. The lifecycle engine
// in pkg/shm itself takes no dependency on this package or on Viper: only
// the CLI needs configurable defaults, matching spec.md §6's "no CLI, no
// environment variables" constraint at the library level.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the CLI's resolved defaults.
//
// Precedence (highest to lowest):
//  1. CLI flags (applied by cmd/shmctl's commands over the loaded Config)
//  2. Environment variables (DITTOSHM_*)
//  3. Configuration file (YAML)
//  4. Defaults below
type Config struct {
	// Permission is the default octal permission used when creating a
	// segment without an explicit --permission flag.
	Permission uint32 `mapstructure:"permission" yaml:"permission"`

	// ZeroMemory is the default for --zero-memory.
	ZeroMemory bool `mapstructure:"zero_memory" yaml:"zero_memory"`

	// CreationMode is the default creation mode name ("create_exclusive",
	// "purge_and_create", "open_or_create") used by `shmctl create`
	// without an explicit --mode flag.
	CreationMode string `mapstructure:"creation_mode" yaml:"creation_mode"`

	// Logging controls cmd/shmctl's own log output.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LoggingConfig controls the CLI's log output, mirroring internal/logger's Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in defaults used when no config file or
// environment override is present.
func Default() *Config {
	return &Config{
		Permission:   0o700,
		ZeroMemory:   false,
		CreationMode: "open_or_create",
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load resolves configuration from, in increasing precedence: defaults,
// an on-disk YAML file, then DITTOSHM_* environment variables. Load uses
// its own Viper instance, so no CLI flag is bound into it; the caller
// applies flag values on top of the returned Config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("DITTOSHM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	cfg := Default()
	v.SetDefault("permission", cfg.Permission)
	v.SetDefault("zero_memory", cfg.ZeroMemory)
	v.SetDefault("creation_mode", cfg.CreationMode)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path in YAML format.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dittoshm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dittoshm")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
