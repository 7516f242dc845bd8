package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentRelayVersion  = 1
)

// Default values applied when a field is left unset.
const (
	DefaultEventChannel        = "antiraid:events"
	DefaultCorrelationTimeout  = 15 * time.Minute
	DefaultExpirySweepInterval = time.Minute
	DefaultExpiryBatchSize     = 500
	DefaultMaxConcurrency      = 8
	DefaultMaxLogsToKeep       = 10
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Relay  RelayConfig
}

// CommonConfig contains configuration shared between every command.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Discord    Discord    `koanf:"discord"`
	Events     Events     `koanf:"events"`
	Uptrace    Uptrace    `koanf:"uptrace"`
}

// RelayConfig contains configuration of the event relay.
type RelayConfig struct {
	// Version of the relay config.
	Version int `koanf:"version"`
	// Seconds to wait for a moderation end event before giving up on it.
	CorrelationTimeout int `koanf:"correlation_timeout"`
	// Seconds between sting expiry sweeps (negative disables the sweeper).
	ExpirySweepInterval int `koanf:"expiry_sweep_interval"`
	// Number of stings loaded per expiry sweep.
	ExpiryBatchSize int `koanf:"expiry_batch_size"`
	// Maximum number of event handlers running at once per event.
	MaxConcurrency int `koanf:"max_concurrency"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Disable client side caching (required by servers without RESP3 tracking).
	DisableCache bool `koanf:"disable_cache"`
}

// Discord contains Discord REST configuration.
type Discord struct {
	// Bot token used for moderation actions.
	Token string `koanf:"token"`
}

// Events contains event bus configuration.
type Events struct {
	// Redis pub/sub channel carrying event envelopes.
	Channel string `koanf:"channel"`
	// Maximum publish attempts before an event is dropped.
	PublishRetries uint64 `koanf:"publish_retries"`
}

// Uptrace contains tracing configuration.
type Uptrace struct {
	// Uptrace DSN (empty disables tracing).
	DSN string `koanf:"dsn"`
	// Service name reported to Uptrace.
	ServiceName string `koanf:"service_name"`
	// Deployment environment reported to Uptrace.
	Environment string `koanf:"environment"`
}

// CorrelationTimeoutDuration returns the correlation timeout as a duration.
func (c *RelayConfig) CorrelationTimeoutDuration() time.Duration {
	return time.Duration(c.CorrelationTimeout) * time.Second
}

// ExpirySweepIntervalDuration returns the sweep interval as a duration.
func (c *RelayConfig) ExpirySweepIntervalDuration() time.Duration {
	return time.Duration(c.ExpirySweepInterval) * time.Second
}

// DefaultConfigPaths returns the directories searched for config files.
func DefaultConfigPaths() ([]string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".antiraid",
		homeDir + "/.antiraid/config",
		"/etc/antiraid/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	configPaths, err := DefaultConfigPaths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(configPaths)
}

// LoadConfigFrom loads common.toml and relay.toml from the first path that
// contains each of them.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	var config Config

	commonPath, err := loadFile(configPaths, "common", &config.Common)
	if err != nil {
		return nil, "", err
	}

	if _, err := loadFile(configPaths, "relay", &config.Relay); err != nil {
		return nil, "", err
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("relay", config.Relay.Version, CurrentRelayVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	return &config, commonPath, nil
}

// loadFile unmarshals the first <name>.toml found in the search paths into out.
func loadFile(configPaths []string, name string, out any) (string, error) {
	for _, path := range configPaths {
		k := koanf.New(".")

		configPath := fmt.Sprintf("%s/%s.toml", path, name)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			continue
		}

		if err := k.Unmarshal("", out); err != nil {
			return "", fmt.Errorf("error unmarshaling %s: %w", configPath, err)
		}

		return path, nil
	}

	return "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, name)
}

// applyDefaults fills unset fields with their default values.
func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}

	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = DefaultMaxLogsToKeep
	}

	if c.Common.Events.Channel == "" {
		c.Common.Events.Channel = DefaultEventChannel
	}

	if c.Common.Events.PublishRetries == 0 {
		c.Common.Events.PublishRetries = 3
	}

	if c.Common.Uptrace.ServiceName == "" {
		c.Common.Uptrace.ServiceName = "antiraid"
	}

	if c.Relay.CorrelationTimeout <= 0 {
		c.Relay.CorrelationTimeout = int(DefaultCorrelationTimeout / time.Second)
	}

	if c.Relay.ExpirySweepInterval == 0 {
		c.Relay.ExpirySweepInterval = int(DefaultExpirySweepInterval / time.Second)
	}

	if c.Relay.ExpiryBatchSize <= 0 {
		c.Relay.ExpiryBatchSize = DefaultExpiryBatchSize
	}

	if c.Relay.MaxConcurrency <= 0 {
		c.Relay.MaxConcurrency = DefaultMaxConcurrency
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/antiraid/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
