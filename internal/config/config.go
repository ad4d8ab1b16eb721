// Package config handles citeverify configuration: a YAML file under the
// user's config directory with environment-variable overrides for
// secrets. Thresholds and rate limits are policy parameters here, not
// constants baked into the engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable policy parameters and credentials.
type Config struct {
	// Threshold is the minimum title similarity for accepting a
	// title-search match.
	Threshold float64 `yaml:"threshold,omitempty"`

	// YearTolerance is the allowed cited-vs-matched year difference
	// before a discrepancy is recorded.
	YearTolerance int `yaml:"year_tolerance,omitempty"`

	// Concurrency bounds how many citations are verified in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Per-source request rates in requests per second.
	CrossrefRate float64 `yaml:"crossref_rate,omitempty"`
	ArxivRate    float64 `yaml:"arxiv_rate,omitempty"`
	S2Rate       float64 `yaml:"s2_rate,omitempty"`

	// UnpaywallEmail is the operator contact address Unpaywall requires.
	UnpaywallEmail string `yaml:"unpaywall_email,omitempty"`

	// CrossrefMailto, when set, routes requests through CrossRef's
	// polite pool.
	CrossrefMailto string `yaml:"crossref_mailto,omitempty"`

	// S2APIKey authenticates Semantic Scholar requests.
	S2APIKey string `yaml:"s2_api_key,omitempty"`

	// CacheTTLDays is how long cached outcomes stay valid.
	CacheTTLDays int `yaml:"cache_ttl_days,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "citeverify"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Default returns the shipped policy defaults.
func Default() Config {
	return Config{
		Threshold:      0.85,
		YearTolerance:  0,
		Concurrency:    4,
		CrossrefRate:   5.0,
		ArxivRate:      3.0,
		S2Rate:         1.0,
		UnpaywallEmail: "user@example.com",
		CacheTTLDays:   7,
	}
}

// Path returns the config file path. Respects XDG_CONFIG_HOME, defaults
// to ~/.config/citeverify/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file, applies it over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	if path := Path(); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets environment variables override file values for secrets
// and contact addresses. The .env file, if any, was loaded by the CLI
// before this runs.
func (c *Config) applyEnv() {
	if v := os.Getenv("UNPAYWALL_EMAIL"); v != "" {
		c.UnpaywallEmail = v
	}
	if v := os.Getenv("CROSSREF_MAILTO"); v != "" {
		c.CrossrefMailto = v
	}
	if v := os.Getenv("S2_API_KEY"); v != "" {
		c.S2APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0, got %v", c.Threshold)
	}
	if c.CrossrefRate <= 0 || c.ArxivRate <= 0 || c.S2Rate <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// Save writes the config to its canonical path, creating the directory
// if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
