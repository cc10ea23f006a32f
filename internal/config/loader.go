package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CAROUSELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("carousell")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".carousell"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("marketplace.base_url", cfg.Marketplace.BaseURL)
	v.SetDefault("marketplace.search_path", cfg.Marketplace.SearchPath)
	v.SetDefault("marketplace.max_results", cfg.Marketplace.MaxResults)

	v.SetDefault("browser.kind", cfg.Browser.Kind)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.page_load_timeout", cfg.Browser.PageLoadTimeout)
	v.SetDefault("browser.user_agents", cfg.Browser.UserAgents)
	v.SetDefault("browser.extra_paths", cfg.Browser.ExtraPaths)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)

	v.SetDefault("pacing.delay_min", cfg.Pacing.DelayMin)
	v.SetDefault("pacing.delay_max", cfg.Pacing.DelayMax)
	v.SetDefault("pacing.scroll_steps", cfg.Pacing.ScrollSteps)
	v.SetDefault("pacing.scroll_delay_min", cfg.Pacing.ScrollDelayMin)
	v.SetDefault("pacing.scroll_delay_max", cfg.Pacing.ScrollDelayMax)
	v.SetDefault("pacing.small_result_threshold", cfg.Pacing.SmallResultThreshold)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)

	v.SetDefault("web.addr", cfg.Web.Addr)
	v.SetDefault("web.cache_size", cfg.Web.CacheSize)
	v.SetDefault("web.cache_ttl", cfg.Web.CacheTTL)
	v.SetDefault("web.max_results", cfg.Web.MaxResults)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
