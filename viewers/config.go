package viewers

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for viewer polling and serving.
type Config struct {
	// APIKey is the YouTube Data API key. Required for polling.
	APIKey string

	// Series are the live streams to poll.
	Series []*Series

	// Interval is the polling period. Default: 30s.
	Interval time.Duration

	// DataDir holds the history files. Default: "data".
	DataDir string

	// Listen is the HTTP listen address. Default: ":3000".
	Listen string

	// DefaultProxy is the proxy URL for API requests.
	DefaultProxy string

	// BaseURL overrides the YouTube Data API base URL.
	BaseURL string

	// RateLimit configures per-video request limiting.
	RateLimit ratelimit.Config

	// MaxRetries bounds attempts per fetch. Default: 3.
	MaxRetries int

	// RetryBackoffInitial is the wait before the first retry. Default: 2s.
	RetryBackoffInitial time.Duration

	// RetryBackoffMax caps the wait between retries. Default: 30s.
	RetryBackoffMax time.Duration

	// SkipJitter disables the pre-request jitter sleep.
	SkipJitter bool
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Listen == "" {
		cfg.Listen = ":3000"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = youtubeAPIBase
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoffInitial == 0 {
		cfg.RetryBackoffInitial = 2 * time.Second
	}
	if cfg.RetryBackoffMax == 0 {
		cfg.RetryBackoffMax = 30 * time.Second
	}
}

// fileConfig is the YAML layout of a config file.
type fileConfig struct {
	APIKey   string    `yaml:"api_key"`
	Interval string    `yaml:"interval"`
	DataDir  string    `yaml:"data_dir"`
	Listen   string    `yaml:"listen"`
	Proxy    string    `yaml:"proxy"`
	BaseURL  string    `yaml:"base_url"`
	Retries  int       `yaml:"retries"`
	Series   []*Series `yaml:"series"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty path loads only the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = parseConfig(b); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.defaults()
	return cfg, nil
}

func parseConfig(b []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	cfg := Config{
		APIKey:       fc.APIKey,
		DataDir:      fc.DataDir,
		Listen:       fc.Listen,
		DefaultProxy: fc.Proxy,
		BaseURL:      fc.BaseURL,
		MaxRetries:   fc.Retries,
	}
	if fc.Interval != "" {
		d, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = d
	}
	for _, s := range fc.Series {
		if s == nil || s.Name == "" || s.VideoID == "" {
			return Config{}, errors.New("series entries need name and video_id")
		}
		cfg.Series = append(cfg.Series, NewSeries(s.Name, s.VideoID, s.File))
	}
	return cfg, nil
}

// applyEnv overrides fields from YOUTUBE_API_KEY, FEEDSTATS_SERIES,
// FEEDSTATS_DATA_DIR, FEEDSTATS_PROXY and PORT.
func (cfg *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("YOUTUBE_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := getenv("FEEDSTATS_SERIES"); v != "" {
		cfg.Series = ParseSeries(v)
	}
	if v := getenv("FEEDSTATS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := getenv("FEEDSTATS_PROXY"); v != "" {
		cfg.DefaultProxy = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
}

// Validate reports configuration that cannot poll.
func (cfg *Config) Validate() error {
	if cfg.APIKey == "" {
		return errors.New("YOUTUBE_API_KEY is not set")
	}
	if len(cfg.Series) == 0 {
		return errors.New("no series configured")
	}
	seen := make(map[string]bool, len(cfg.Series))
	for _, s := range cfg.Series {
		if seen[s.Name] {
			return fmt.Errorf("duplicate series %q", s.Name)
		}
		seen[s.Name] = true
	}
	if cfg.Interval < time.Second {
		return fmt.Errorf("interval %s is below one second", cfg.Interval)
	}
	return nil
}

// OpenSeries loads the history of every series from DataDir.
func (cfg *Config) OpenSeries() error {
	for _, s := range cfg.Series {
		if err := s.Open(cfg.DataDir); err != nil {
			return err
		}
	}
	return nil
}
