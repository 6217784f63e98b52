// Package config loads contigkit settings from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/contigkit/internal/buf"
	"github.com/joshuapare/contigkit/pool"
)

// Driver names accepted in device.driver.
const (
	DriverCMEM = "cmem"
	DriverSim  = "sim"
)

// EnvPrefix prefixes environment overrides, e.g. CONTIGKIT_DEVICE_PATH.
const EnvPrefix = "CONTIGKIT"

// Config represents the complete configuration
type Config struct {
	Device DeviceConfig `yaml:"device" mapstructure:"device"`
	Pool   PoolConfig   `yaml:"pool" mapstructure:"pool"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DeviceConfig selects and configures the backing device
type DeviceConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // cmem or sim
	Path        string `yaml:"path" mapstructure:"path"`                 // device node for cmem
	SimCapacity int64  `yaml:"sim_capacity" mapstructure:"sim_capacity"` // bytes, 0 = unlimited
}

// PoolConfig tunes the allocator
type PoolConfig struct {
	Granularity int    `yaml:"granularity" mapstructure:"granularity"` // size-class unit in bytes
	Recycle     string `yaml:"recycle" mapstructure:"recycle"`         // all or one
}

// LogConfig represents logging configuration with rotation support
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`               // Log file path (empty = console only)
	Level      string `yaml:"level" mapstructure:"level"`             // Log level (debug, info, warn, error)
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // Max size in MB before rotation
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // Max age in days to keep files
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // Max number of old files to keep
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // Compress old log files
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Driver:      DriverCMEM,
			Path:        "/dev/cmem",
			SimCapacity: 64 << 20, // 64MB carve-out when simulating
		},
		Pool: PoolConfig{
			Granularity: pool.DefaultGranularity,
			Recycle:     pool.RecycleAll.String(),
		},
		Log: LogConfig{
			File:       "",     // Empty = console only
			Level:      "info", // Default log level
			MaxSize:    100,    // 100MB max size
			MaxAge:     30,     // Keep for 30 days
			MaxBackups: 10,     // Keep 10 old files
			Compress:   true,   // Compress old files
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Device.Driver {
	case DriverCMEM:
		if c.Device.Path == "" {
			return fmt.Errorf("device path cannot be empty for the %s driver", DriverCMEM)
		}
	case DriverSim:
	default:
		return fmt.Errorf("device driver must be one of: %s, %s", DriverCMEM, DriverSim)
	}

	if c.Device.SimCapacity < 0 {
		return fmt.Errorf("device sim_capacity must be non-negative")
	}

	if !buf.IsPowerOfTwo(c.Pool.Granularity) {
		return fmt.Errorf("pool granularity must be a power of two, got %d", c.Pool.Granularity)
	}

	if _, err := pool.ParseRecyclePolicy(c.Pool.Recycle); err != nil {
		return err
	}

	if c.Log.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		isValid := false
		for _, level := range validLevels {
			if c.Log.Level == level {
				isValid = true
				break
			}
		}
		if !isValid {
			return fmt.Errorf("log.level must be one of: debug, info, warn, error")
		}
	}

	if c.Log.MaxSize < 0 {
		return fmt.Errorf("log.max_size must be non-negative")
	}

	if c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_age must be non-negative")
	}

	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be non-negative")
	}

	return nil
}

// AllocatorConfig converts the pool section into allocator settings.
func (c *Config) AllocatorConfig(logger *slog.Logger) (*pool.Config, error) {
	policy, err := pool.ParseRecyclePolicy(c.Pool.Recycle)
	if err != nil {
		return nil, err
	}
	return &pool.Config{
		Granularity: c.Pool.Granularity,
		Recycle:     policy,
		Logger:      logger,
	}, nil
}

// LoadConfig loads configuration from file and merges with defaults.
// With an empty configFile it looks for contigkit.yaml in the working
// directory and /etc/contigkit, and falls back to defaults when none exists.
// Environment variables (CONTIGKIT_POOL_GRANULARITY, ...) override both.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	setDefaults(v, config)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("contigkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/contigkit")
	}

	// Read the configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// Unmarshal the config
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("device.driver", c.Device.Driver)
	v.SetDefault("device.path", c.Device.Path)
	v.SetDefault("device.sim_capacity", c.Device.SimCapacity)
	v.SetDefault("pool.granularity", c.Pool.Granularity)
	v.SetDefault("pool.recycle", c.Pool.Recycle)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.max_size", c.Log.MaxSize)
	v.SetDefault("log.max_age", c.Log.MaxAge)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.compress", c.Log.Compress)
}

// SaveToFile saves a configuration to a YAML file
func SaveToFile(config *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("no config file path provided")
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
