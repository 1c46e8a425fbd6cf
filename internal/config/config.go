// Package config loads ~/.wpp/config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// Config represents the global ~/.wpp/config.toml.
type Config struct {
	DefaultSession string        `toml:"default_session"`
	Log            LogConfig     `toml:"log"`
	History        HistoryConfig `toml:"history"`
	Metrics        MetricsConfig `toml:"metrics"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// HistoryConfig tunes history reads.
type HistoryConfig struct {
	// SearchCount is the page size used when a search request leaves count unset.
	SearchCount int `toml:"search_count"`
	// ScanLimit is the row limit used when a scan request omits one.
	ScanLimit int `toml:"scan_limit"`
	// SubstrateTimeout bounds each storage call. Zero disables the bound.
	SubstrateTimeout Duration `toml:"substrate_timeout"`
	// GroupMetadataTTL is how long fetched group metadata is served without refetching.
	GroupMetadataTTL Duration `toml:"group_metadata_ttl"`
	// IndexBatch is how many messages each row store append carries.
	IndexBatch int `toml:"index_batch"`
}

// MetricsConfig controls the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		DefaultSession: "main",
		Log:            LogConfig{Level: "info"},
		History: HistoryConfig{
			SearchCount:      20,
			ScanLimit:        1000,
			SubstrateTimeout: Duration{30 * time.Second},
			GroupMetadataTTL: Duration{time.Hour},
			IndexBatch:       500,
		},
	}
}

// Load reads config from the given path on top of Defaults. Returns an error
// if the file is missing or invalid.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Validate rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.History.SearchCount <= 0 {
		return fmt.Errorf("history.search_count must be positive, got %d", c.History.SearchCount)
	}
	if c.History.ScanLimit == 0 || c.History.ScanLimit < -1 {
		return fmt.Errorf("history.scan_limit must be positive or -1, got %d", c.History.ScanLimit)
	}
	if c.History.IndexBatch < 0 {
		return fmt.Errorf("history.index_batch must not be negative, got %d", c.History.IndexBatch)
	}
	if c.History.SubstrateTimeout.Duration < 0 {
		return fmt.Errorf("history.substrate_timeout must not be negative")
	}
	if c.History.GroupMetadataTTL.Duration < 0 {
		return fmt.Errorf("history.group_metadata_ttl must not be negative")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
