package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/carousell-scraper/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carousell",
		Short: "Carousell.sg listing scraper",
		Long: `carousell searches the Carousell.sg marketplace with a real browser
(Chrome/Chromium or Firefox) and extracts listing name, price and URL.

Pages are loaded with human-like pauses and scrolling. Results can be
printed, written to JSON, JSONL, CSV, SQLite, PostgreSQL or MongoDB, or
browsed through a small web form.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the config file and environment, then lets apply adjust
// it from flags before validation.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if apply != nil {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("carousell %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Marketplace:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Marketplace.BaseURL)
			fmt.Printf("  Max Results:       %d\n", cfg.Marketplace.MaxResults)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Kind:              %s\n", cfg.Browser.Kind)
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Window:            %dx%d\n", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
			fmt.Printf("  Page Load Timeout: %s\n", cfg.Browser.PageLoadTimeout)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Browser.UserAgents))
			fmt.Printf("  Extra Paths:       %s\n", strings.Join(cfg.Browser.ExtraPaths, ", "))
			fmt.Printf("\nPacing:\n")
			fmt.Printf("  Delay:             %s - %s\n", cfg.Pacing.DelayMin, cfg.Pacing.DelayMax)
			fmt.Printf("  Scroll Steps:      %d\n", cfg.Pacing.ScrollSteps)
			fmt.Printf("  Scroll Delay:      %s - %s\n", cfg.Pacing.ScrollDelayMin, cfg.Pacing.ScrollDelayMax)
			fmt.Printf("  Scroll Above:      %d results\n", cfg.Pacing.SmallResultThreshold)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nWeb:\n")
			fmt.Printf("  Address:           %s\n", cfg.Web.Addr)
			fmt.Printf("  Cache:             %d entries, %s TTL\n", cfg.Web.CacheSize, cfg.Web.CacheTTL)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
