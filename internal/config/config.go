package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the Carousell scraper.
type Config struct {
	Marketplace MarketplaceConfig `mapstructure:"marketplace" yaml:"marketplace"`
	Browser     BrowserConfig     `mapstructure:"browser"     yaml:"browser"`
	Pacing      PacingConfig      `mapstructure:"pacing"      yaml:"pacing"`
	Extract     ExtractConfig     `mapstructure:"extract"     yaml:"extract"`
	Storage     StorageConfig     `mapstructure:"storage"     yaml:"storage"`
	Web         WebConfig         `mapstructure:"web"         yaml:"web"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"     yaml:"metrics"`
}

// MarketplaceConfig describes where searches are sent.
type MarketplaceConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	SearchPath string `mapstructure:"search_path" yaml:"search_path"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"`
}

// BrowserConfig controls which browser is launched and how.
type BrowserConfig struct {
	Kind            string        `mapstructure:"kind"              yaml:"kind"` // auto, chrome, firefox
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
	WindowWidth     int           `mapstructure:"window_width"      yaml:"window_width"`
	WindowHeight    int           `mapstructure:"window_height"     yaml:"window_height"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	ExtraPaths      []string      `mapstructure:"extra_paths"       yaml:"extra_paths"`
	UserDataDir     string        `mapstructure:"user_data_dir"     yaml:"user_data_dir"`
}

// PacingConfig controls the human-like delays between automated steps.
type PacingConfig struct {
	DelayMin             time.Duration `mapstructure:"delay_min"              yaml:"delay_min"`
	DelayMax             time.Duration `mapstructure:"delay_max"              yaml:"delay_max"`
	ScrollSteps          int           `mapstructure:"scroll_steps"           yaml:"scroll_steps"`
	ScrollDelayMin       time.Duration `mapstructure:"scroll_delay_min"       yaml:"scroll_delay_min"`
	ScrollDelayMax       time.Duration `mapstructure:"scroll_delay_max"       yaml:"scroll_delay_max"`
	SmallResultThreshold int           `mapstructure:"small_result_threshold" yaml:"small_result_threshold"`
}

// ExtractConfig overrides the listing selectors. Empty lists keep the defaults.
type ExtractConfig struct {
	Containers []string `mapstructure:"containers" yaml:"containers"`
	Name       []string `mapstructure:"name"       yaml:"name"`
	Price      []string `mapstructure:"price"      yaml:"price"`
	Link       []string `mapstructure:"link"       yaml:"link"`
}

// StorageConfig controls where results are written.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // none, json, jsonl, csv, sqlite, postgres, mongodb
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	DSN        string `mapstructure:"dsn"         yaml:"dsn"`
	Database   string `mapstructure:"database"    yaml:"database"`
	Collection string `mapstructure:"collection"  yaml:"collection"`
}

// Types returns the configured backends. Type may list several separated by
// commas, e.g. "csv,sqlite".
func (c StorageConfig) Types() []string {
	var out []string
	for _, t := range strings.Split(c.Type, ",") {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{"none"}
	}
	return out
}

// WebConfig controls the web form server.
type WebConfig struct {
	Addr       string        `mapstructure:"addr"        yaml:"addr"`
	CacheSize  int           `mapstructure:"cache_size"  yaml:"cache_size"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"   yaml:"cache_ttl"`
	MaxResults int           `mapstructure:"max_results" yaml:"max_results"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Marketplace: MarketplaceConfig{
			BaseURL:    "https://www.carousell.sg",
			SearchPath: "/search/",
			MaxResults: 20,
		},
		Browser: BrowserConfig{
			Kind:            "auto",
			Headless:        true,
			WindowWidth:     1920,
			WindowHeight:    1080,
			PageLoadTimeout: 30 * time.Second,
		},
		Pacing: PacingConfig{
			DelayMin:             2 * time.Second,
			DelayMax:             5 * time.Second,
			ScrollSteps:          2,
			ScrollDelayMin:       500 * time.Millisecond,
			ScrollDelayMax:       1 * time.Second,
			SmallResultThreshold: 10,
		},
		Storage: StorageConfig{
			Type:       "none",
			OutputPath: "./output",
			Database:   "carousell",
			Collection: "listings",
		},
		Web: WebConfig{
			Addr:       ":8501",
			CacheSize:  64,
			CacheTTL:   10 * time.Minute,
			MaxResults: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
