package carousell

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOptionsApplied(t *testing.T) {
	c, err := NewClient(
		WithHeadless(false),
		WithDelayRange(time.Second, 3*time.Second),
		WithBrowser("firefox"),
		WithBrowserPaths("/opt/firefox/firefox"),
		WithUserAgent("custom-agent"),
		WithScrollSteps(4),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cfg := c.cfg
	if cfg.Browser.Headless || cfg.Browser.Kind != "firefox" {
		t.Errorf("browser options not applied: %+v", cfg.Browser)
	}
	if cfg.Pacing.DelayMin != time.Second || cfg.Pacing.DelayMax != 3*time.Second || cfg.Pacing.ScrollSteps != 4 {
		t.Errorf("pacing options not applied: %+v", cfg.Pacing)
	}
	if len(cfg.Browser.ExtraPaths) != 1 || cfg.Browser.UserAgents[0] != "custom-agent" {
		t.Errorf("path/agent options not applied: %+v", cfg.Browser)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"inverted delay", WithDelayRange(5*time.Second, time.Second)},
		{"unknown browser", WithBrowser("opera")},
		{"negative scroll", WithScrollSteps(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.opt); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSearchRejectsBadInputWithoutBrowser(t *testing.T) {
	listings, err := Search(context.Background(), "  ", 5)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if listings == nil {
		t.Error("listings must be non-nil")
	}

	_, err = Search(context.Background(), "laptop", 0)
	if !errors.Is(err, ErrInvalidMax) {
		t.Errorf("expected ErrInvalidMax, got %v", err)
	}
}
