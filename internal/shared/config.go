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
	Credentials CredentialsConfig `toml:"credentials"`
	Scraper     ScraperConfig     `toml:"scraper"`
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ScraperConfig controls outbound request pacing and pipeline bounds.
type ScraperConfig struct {
	PerDomainCooldownMS int `toml:"per_domain_cooldown_ms"`
	GlobalCooldownMS    int `toml:"global_cooldown_ms"`
	HTTPTimeoutSecs     int `toml:"http_timeout_secs"`
	HTTPRetries         int `toml:"http_retries"`
	MaxCatalogPages     int `toml:"max_catalog_pages"`
	MaxLinksPerQuery    int `toml:"max_links_per_query"`
}

// PerDomainCooldown returns the minimum delay between requests to one host.
func (s ScraperConfig) PerDomainCooldown() time.Duration {
	return time.Duration(s.PerDomainCooldownMS) * time.Millisecond
}

// GlobalCooldown returns the fixed delay applied before every request.
func (s ScraperConfig) GlobalCooldown() time.Duration {
	return time.Duration(s.GlobalCooldownMS) * time.Millisecond
}

// HTTPTimeout returns the per-request timeout.
func (s ScraperConfig) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSecs) * time.Second
}

// ServerConfig contains HTTP server settings.
//
// An empty APIKey leaves the protected routes open, for local testing.
type ServerConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
}

// DatabaseConfig contains job archive database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
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
