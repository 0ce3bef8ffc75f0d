package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Sources for ratios and inventory.
const (
	SourceREST  = "rest"
	SourceLocal = "local"
)

// Config holds all resplan configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	API        APIConfig        `toml:"api"`
	Cache      CacheConfig      `toml:"cache"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultSource string `toml:"default_source"`
	DBPath        string `toml:"db_path,omitempty"`
	ForecastDir   string `toml:"forecast_dir,omitempty"`
	User          string `toml:"user,omitempty"`
}

// APIConfig holds municipal API settings.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	Token      string `toml:"token,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
	RetryCount int    `toml:"retry_count"`
}

// CacheConfig holds provider cache settings.
type CacheConfig struct {
	TTLSec int `toml:"ttl_sec"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr     string `toml:"addr"`
	Schedule string `toml:"schedule"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
	Color bool   `toml:"color"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultSource: SourceREST,
		},
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			TimeoutSec: 30,
			RetryCount: 3,
		},
		Cache: CacheConfig{
			TTLSec: 300,
		},
		Daemon: DaemonConfig{
			Addr:     "127.0.0.1:8790",
			Schedule: "0 0 6 1 * *",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
			Color: true,
		},
	}
}

// Timeout returns the API timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// TTL returns the provider cache TTL as a duration.
func (c Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// Validate checks values Load cannot default.
func (c Config) Validate() error {
	switch c.General.DefaultSource {
	case SourceREST, SourceLocal:
	default:
		return fmt.Errorf("general.default_source must be %q or %q, got %q", SourceREST, SourceLocal, c.General.DefaultSource)
	}
	if c.API.TimeoutSec < 0 || c.API.RetryCount < 0 || c.Cache.TTLSec < 0 {
		return fmt.Errorf("timeout_sec, retry_count and ttl_sec must not be negative")
	}
	return nil
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "resplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "resplan")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", Path(), err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
