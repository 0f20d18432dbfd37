package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Assets   AssetsConfig   `toml:"assets"`
	Polling  PollingConfig  `toml:"polling"`
	Matching MatchingConfig `toml:"matching"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Refresh  RefreshConfig  `toml:"refresh"`
}

// APIConfig contains the alignment API endpoint and credential.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	DashboardURL   string `toml:"dashboard_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ListLimit      int    `toml:"list_limit"`
}

// AssetsConfig points at the demo asset manifest, either an http(s) URL or a local path.
type AssetsConfig struct {
	Manifest       string   `toml:"manifest"`
	AllowedFormats []string `toml:"allowed_formats"`
}

// PollingConfig tunes the task poller. MaxAttempts of 0 polls until a terminal status.
type PollingConfig struct {
	IntervalSeconds float64 `toml:"interval_seconds"`
	Increment       int     `toml:"increment"`
	Ceiling         int     `toml:"ceiling"`
	MaxAttempts     int     `toml:"max_attempts"`
}

// MatchingConfig holds the fuzzy name matcher thresholds.
type MatchingConfig struct {
	MinSharedTokens     int `toml:"min_shared_tokens"`
	MinFirstTokenShared int `toml:"min_first_token_shared"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// RefreshConfig bounds the bulk re-check of cached tasks.
type RefreshConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// Timeout returns the HTTP client timeout; zero means none.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the delay between polls.
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
