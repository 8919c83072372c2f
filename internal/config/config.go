// Package config loads, defaults, and validates the sitesync configuration
// file. Values in the YAML may reference environment variables with
// `${VAR}` syntax; a local .env file is loaded first so secrets stay out
// of the config.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Adapter identifiers accepted in source configuration.
const (
	AdapterFrontMatter  = "frontmatter"
	AdapterPackageIndex = "package-index"
	AdapterFeed         = "feed"
	AdapterScrape       = "scrape"
)

// Config is the application configuration.
type Config struct {
	Sources []Source      `yaml:"sources"`
	Output  OutputConfig  `yaml:"output"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Daemon  *DaemonConfig `yaml:"daemon,omitempty"`
	Notify  *NotifyConfig `yaml:"notify,omitempty"`
	RunLog  *RunLogConfig `yaml:"runlog,omitempty"`
	Strict  bool          `yaml:"strict,omitempty"`
}

// Source configures one content source.
type Source struct {
	Name     string   `yaml:"name"`
	Adapter  string   `yaml:"adapter"`
	Kind     string   `yaml:"kind"`
	Locators []string `yaml:"locators"`

	// Selectors maps field names to CSS selectors (scrape adapter only).
	Selectors map[string]string `yaml:"selectors,omitempty"`

	// PageSize overrides the index page size (package-index adapter only).
	PageSize int `yaml:"page_size,omitempty"`
}

// OutputConfig names the emit destinations.
type OutputConfig struct {
	// SiteDataDir receives one <kind>.json file per registered kind.
	SiteDataDir string `yaml:"site_data_dir"`

	// CMSConfigPath is the file the CMS collection config is written to.
	CMSConfigPath string `yaml:"cms_config_path"`

	// Provenance emits a _source object on every site data record.
	Provenance bool `yaml:"provenance,omitempty"`
}

// FetchConfig tunes the fetch stage.
type FetchConfig struct {
	// Workers bounds how many sources are fetched concurrently.
	Workers int `yaml:"workers,omitempty"`

	// SourceTimeout caps one source's fetch as a duration string. A
	// source that exceeds it degrades to unavailable.
	SourceTimeout string `yaml:"source_timeout,omitempty"`
}

// DaemonConfig configures scheduled re-runs.
type DaemonConfig struct {
	// Interval between scheduled runs, as a duration string.
	Interval string `yaml:"interval,omitempty"`

	// MetricsAddr exposes Prometheus metrics when set (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// WatchConfig reloads and re-runs when the config file changes.
	WatchConfig bool `yaml:"watch_config,omitempty"`

	// Debounce coalesces config-file change bursts, as a duration string.
	Debounce string `yaml:"debounce,omitempty"`
}

// NotifyConfig configures run-completed notifications.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
}

// RunLogConfig configures the run history store.
type RunLogConfig struct {
	Path string `yaml:"path"`
}

// Load reads, expands, defaults, and validates the configuration file.
func Load(configPath string) (*Config, error) {
	// Missing .env files are fine; the config may not reference any vars.
	_ = godotenv.Load(".env", ".env.local")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SourceTimeout returns the parsed per-source fetch timeout.
func (c *Config) SourceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.SourceTimeout)
	if err != nil {
		return defaultSourceTimeout
	}
	return d
}

// IntervalDuration returns the parsed schedule interval. Safe on a nil
// receiver; the default interval applies.
func (d *DaemonConfig) IntervalDuration() time.Duration {
	if d == nil {
		return defaultInterval
	}
	dur, err := time.ParseDuration(d.Interval)
	if err != nil {
		return defaultInterval
	}
	return dur
}

// DebounceDuration returns the parsed config-watch debounce window. Safe
// on a nil receiver; the default debounce applies.
func (d *DaemonConfig) DebounceDuration() time.Duration {
	if d == nil {
		return defaultDebounce
	}
	dur, err := time.ParseDuration(d.Debounce)
	if err != nil {
		return defaultDebounce
	}
	return dur
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Sources: []Source{
			{
				Name:     "tutorials",
				Adapter:  AdapterFrontMatter,
				Kind:     "tutorial",
				Locators: []string{"content/tutorials/**/*.md"},
			},
			{
				Name:     "packages",
				Adapter:  AdapterPackageIndex,
				Kind:     "package-entry",
				Locators: []string{"https://pkg.example.com/index"},
			},
			{
				Name:     "releases",
				Adapter:  AdapterFeed,
				Kind:     "changelog-entry",
				Locators: []string{"https://releases.example.com/feed.xml"},
			},
			{
				Name:     "stories",
				Adapter:  AdapterScrape,
				Kind:     "success-story",
				Locators: []string{"https://blog.example.com/case-study"},
				Selectors: map[string]string{
					"title":   "h1.story-title",
					"company": ".company",
					"date":    "time::attr(datetime)",
				},
			},
		},
		Output: OutputConfig{
			SiteDataDir:   "./data",
			CMSConfigPath: "./admin/config.yml",
		},
		Fetch: FetchConfig{
			Workers:       defaultFetchWorkers,
			SourceTimeout: defaultSourceTimeout.String(),
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
