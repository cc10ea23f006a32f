// Package carousell searches the Carousell.sg marketplace with a real
// browser and returns listing name, price and URL.
//
// Example usage:
//
//	listings, err := carousell.Search(ctx, "iphone 15", 10,
//	    carousell.WithHeadless(false),
//	    carousell.WithDelayRange(2*time.Second, 5*time.Second),
//	)
//	if carousell.IsBrowserNotFound(err) {
//	    log.Fatal(err)
//	}
//	for _, l := range listings {
//	    fmt.Println(l.Name, l.Price, l.URL)
//	}
package carousell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/search"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// Listing is one marketplace item.
type Listing = types.Listing

// Result is the full outcome of a search, including extraction stats.
type Result = search.Result

// Errors returned by searches.
var (
	ErrEmptyQuery = types.ErrEmptyQuery
	ErrInvalidMax = types.ErrInvalidMax
)

// IsBrowserNotFound reports whether err means no supported browser is
// installed.
func IsBrowserNotFound(err error) bool { return types.IsBrowserNotFound(err) }

// Option configures a Client.
type Option func(*config.Config)

// WithHeadless runs the browser without a visible window. Headless runs are
// more likely to meet CAPTCHA challenges.
func WithHeadless(headless bool) Option {
	return func(c *config.Config) { c.Browser.Headless = headless }
}

// WithDelayRange sets the random pause after the page loads.
func WithDelayRange(min, max time.Duration) Option {
	return func(c *config.Config) {
		c.Pacing.DelayMin = min
		c.Pacing.DelayMax = max
	}
}

// WithBrowser selects "chrome", "firefox" or "auto".
func WithBrowser(kind string) Option {
	return func(c *config.Config) { c.Browser.Kind = kind }
}

// WithBrowserPaths adds executable locations checked before the defaults.
func WithBrowserPaths(paths ...string) Option {
	return func(c *config.Config) { c.Browser.ExtraPaths = append(c.Browser.ExtraPaths, paths...) }
}

// WithUserAgent pins the User-Agent instead of picking a random one.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Browser.UserAgents = []string{ua} }
}

// WithScrollSteps sets how many times the results page is scrolled.
func WithScrollSteps(n int) Option {
	return func(c *config.Config) { c.Pacing.ScrollSteps = n }
}

// WithBaseURL points searches at another marketplace host.
func WithBaseURL(u string) Option {
	return func(c *config.Config) { c.Marketplace.BaseURL = u }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Client runs searches with a fixed configuration.
type Client struct {
	cfg      *config.Config
	searcher *search.Searcher
	logger   *slog.Logger
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := search.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, searcher: s, logger: logger}, nil
}

// Search returns up to max listings for query. The slice is never nil; on
// failure it holds whatever was gathered and err explains why.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Listing, error) {
	res, err := c.searcher.Search(ctx, query, max)
	return res.Listings, err
}

// SearchResult is like Search but returns the full Result.
func (c *Client) SearchResult(ctx context.Context, query string, max int) (*Result, error) {
	return c.searcher.Search(ctx, query, max)
}

// SearchAll runs several queries one after another.
func (c *Client) SearchAll(ctx context.Context, queries []string, max int) ([]*Result, error) {
	return c.searcher.SearchAll(ctx, queries, max)
}

// Search is a one-shot convenience wrapper around NewClient and
// Client.Search.
func Search(ctx context.Context, query string, max int, opts ...Option) ([]Listing, error) {
	c, err := NewClient(opts...)
	if err != nil {
		return []Listing{}, err
	}
	return c.Search(ctx, query, max)
}
