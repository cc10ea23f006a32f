package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Marketplace.BaseURL); err != nil {
		return fmt.Errorf("marketplace.base_url: %w", err)
	}
	if cfg.Marketplace.MaxResults < 1 {
		return fmt.Errorf("marketplace.max_results must be >= 1, got %d", cfg.Marketplace.MaxResults)
	}

	switch cfg.Browser.Kind {
	case "auto", "chrome", "firefox":
	default:
		return fmt.Errorf("browser.kind must be 'auto', 'chrome' or 'firefox', got %q", cfg.Browser.Kind)
	}
	if cfg.Browser.WindowWidth < 1 || cfg.Browser.WindowHeight < 1 {
		return fmt.Errorf("browser window size must be positive, got %dx%d", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
	}
	if cfg.Browser.PageLoadTimeout <= 0 {
		return fmt.Errorf("browser.page_load_timeout must be > 0")
	}

	if cfg.Pacing.DelayMin < 0 || cfg.Pacing.DelayMax < 0 {
		return fmt.Errorf("pacing delays must be >= 0")
	}
	if cfg.Pacing.DelayMin > cfg.Pacing.DelayMax {
		return fmt.Errorf("pacing.delay_min (%s) must be <= pacing.delay_max (%s)", cfg.Pacing.DelayMin, cfg.Pacing.DelayMax)
	}
	if cfg.Pacing.ScrollDelayMin < 0 || cfg.Pacing.ScrollDelayMin > cfg.Pacing.ScrollDelayMax {
		return fmt.Errorf("pacing scroll delay range is invalid: [%s, %s]", cfg.Pacing.ScrollDelayMin, cfg.Pacing.ScrollDelayMax)
	}
	if cfg.Pacing.ScrollSteps < 0 {
		return fmt.Errorf("pacing.scroll_steps must be >= 0, got %d", cfg.Pacing.ScrollSteps)
	}

	validStorageTypes := map[string]bool{
		"none": true, "json": true, "jsonl": true, "csv": true,
		"sqlite": true, "postgres": true, "mongodb": true,
	}
	for _, t := range cfg.Storage.Types() {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage.type %q is not supported (valid: none, json, jsonl, csv, sqlite, postgres, mongodb)", t)
		}
		if (t == "postgres" || t == "mongodb") && cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for %s storage", t)
		}
	}

	if cfg.Web.CacheSize < 0 {
		return fmt.Errorf("web.cache_size must be >= 0, got %d", cfg.Web.CacheSize)
	}
	if cfg.Web.MaxResults < 1 {
		return fmt.Errorf("web.max_results must be >= 1, got %d", cfg.Web.MaxResults)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that a URL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
