package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks the configuration for structural errors. Defaults are
// expected to be applied already; Load does both.
func Validate(cfg *Config) error {
	if err := validateSources(cfg); err != nil {
		return err
	}
	if err := validateFetch(cfg); err != nil {
		return err
	}
	if err := validateDaemon(cfg); err != nil {
		return err
	}
	if err := validateNotify(cfg); err != nil {
		return err
	}
	return validateRunLog(cfg)
}

func validateSources(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}

	names := make(map[string]bool, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.Name == "" {
			return errors.New("source name cannot be empty")
		}
		if names[src.Name] {
			return fmt.Errorf("duplicate source name: %s", src.Name)
		}
		names[src.Name] = true

		if src.Kind == "" {
			return fmt.Errorf("source %s: kind cannot be empty", src.Name)
		}
		if len(src.Locators) == 0 {
			return fmt.Errorf("source %s: at least one locator is required", src.Name)
		}
		for _, loc := range src.Locators {
			if loc == "" {
				return fmt.Errorf("source %s: locator cannot be empty", src.Name)
			}
		}
		if err := validateAdapter(src); err != nil {
			return err
		}
	}
	return nil
}

func validateAdapter(src Source) error {
	switch src.Adapter {
	case AdapterFrontMatter, AdapterPackageIndex, AdapterFeed, AdapterScrape:
	case "":
		return fmt.Errorf("source %s: adapter cannot be empty", src.Name)
	default:
		return fmt.Errorf("source %s: unsupported adapter: %s (allowed: %s|%s|%s|%s)",
			src.Name, src.Adapter, AdapterFrontMatter, AdapterPackageIndex, AdapterFeed, AdapterScrape)
	}

	if len(src.Selectors) > 0 && src.Adapter != AdapterScrape {
		return fmt.Errorf("source %s: selectors are only valid for the %s adapter", src.Name, AdapterScrape)
	}
	if src.Adapter == AdapterScrape && len(src.Selectors) == 0 {
		return fmt.Errorf("source %s: the %s adapter requires selectors", src.Name, AdapterScrape)
	}
	if src.PageSize != 0 && src.Adapter != AdapterPackageIndex {
		return fmt.Errorf("source %s: page_size is only valid for the %s adapter", src.Name, AdapterPackageIndex)
	}
	if src.PageSize < 0 {
		return fmt.Errorf("source %s: page_size cannot be negative: %d", src.Name, src.PageSize)
	}
	return nil
}

func validateFetch(cfg *Config) error {
	if cfg.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers must be positive: %d", cfg.Fetch.Workers)
	}
	if _, err := time.ParseDuration(cfg.Fetch.SourceTimeout); err != nil {
		return fmt.Errorf("invalid fetch.source_timeout: %s: %w", cfg.Fetch.SourceTimeout, err)
	}
	return nil
}

func validateDaemon(cfg *Config) error {
	if cfg.Daemon == nil {
		return nil
	}
	if _, err := time.ParseDuration(cfg.Daemon.Interval); err != nil {
		return fmt.Errorf("invalid daemon.interval: %s: %w", cfg.Daemon.Interval, err)
	}
	if _, err := time.ParseDuration(cfg.Daemon.Debounce); err != nil {
		return fmt.Errorf("invalid daemon.debounce: %s: %w", cfg.Daemon.Debounce, err)
	}
	return nil
}

func validateNotify(cfg *Config) error {
	if cfg.Notify == nil {
		return nil
	}
	if cfg.Notify.URL == "" {
		return errors.New("notify.url cannot be empty when notify is configured")
	}
	return nil
}

func validateRunLog(cfg *Config) error {
	if cfg.RunLog == nil {
		return nil
	}
	if cfg.RunLog.Path == "" {
		return errors.New("runlog.path cannot be empty when runlog is configured")
	}
	return nil
}
