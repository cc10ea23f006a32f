package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/IshaanNene/carousell-scraper/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSearchFlagsOnlyOverrideChanged(t *testing.T) {
	cmd := searchCmd()
	if err := cmd.Flags().Parse([]string{"--max", "7", "--browser", "Firefox", "--delay-min", "1s"}); err != nil {
		t.Fatal(err)
	}
	f := &searchFlags{}
	f.max, _ = cmd.Flags().GetInt("max")
	f.browser, _ = cmd.Flags().GetString("browser")
	f.delayMin, _ = cmd.Flags().GetDuration("delay-min")

	cfg := config.DefaultConfig()
	cfg.Storage.Type = "sqlite"
	f.apply(cmd, cfg)

	if cfg.Marketplace.MaxResults != 7 || cfg.Browser.Kind != "firefox" || cfg.Pacing.DelayMin != time.Second {
		t.Errorf("changed flags not applied: %+v %+v %+v", cfg.Marketplace, cfg.Browser, cfg.Pacing)
	}
	if !cfg.Browser.Headless || cfg.Pacing.DelayMax != 5*time.Second || cfg.Storage.Type != "sqlite" {
		t.Error("unchanged flags must keep config values")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("Brand new sealed iPhone", 10); got != "Brand new…" {
		t.Errorf("got %q", got)
	}
}
