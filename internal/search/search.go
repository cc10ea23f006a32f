// Package search runs a complete marketplace search: it acquires a browser,
// loads the results page at a human pace, extracts listings and always
// releases the browser.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/carousell-scraper/internal/browser"
	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/extract"
	"github.com/IshaanNene/carousell-scraper/internal/observability"
	"github.com/IshaanNene/carousell-scraper/internal/pacing"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// DefaultSearchPath is the marketplace's search route.
const DefaultSearchPath = "/search/"

// BuildURL returns the search results URL for query under base.
func BuildURL(base, query string) string {
	return buildURL(base, DefaultSearchPath, query)
}

func buildURL(base, path, query string) string {
	if path == "" {
		path = DefaultSearchPath
	}
	return strings.TrimRight(base, "/") + "/" + strings.Trim(path, "/") + "/" + url.PathEscape(strings.TrimSpace(query))
}

// Result is the outcome of one search. Listings is never nil; Err carries the
// same diagnostic that Search returns.
type Result struct {
	ID         string                `json:"id"`
	Query      string                `json:"query"`
	URL        string                `json:"url"`
	Listings   []types.Listing       `json:"listings"`
	Stats      types.ExtractionStats `json:"stats"`
	Screenshot []byte                `json:"-"`
	StartedAt  time.Time             `json:"started_at"`
	Duration   time.Duration         `json:"duration"`
	Err        error                 `json:"-"`
}

// Error returns the diagnostic message, or "" for a clean run.
func (r *Result) Error() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Searcher runs searches. It holds no per-search state and may be shared.
type Searcher struct {
	cfg       *config.Config
	manager   *browser.Manager
	pacer     *pacing.Pacer
	extractor *extract.Extractor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithManager replaces the browser manager.
func WithManager(m *browser.Manager) Option {
	return func(s *Searcher) { s.manager = m }
}

// WithPacer replaces the pacing controller.
func WithPacer(p *pacing.Pacer) Option {
	return func(s *Searcher) { s.pacer = p }
}

// WithMetrics records search metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Searcher) { s.metrics = m }
}

// New builds a Searcher from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Searcher, error) {
	ex, err := extract.New(extract.SelectorsFromConfig(cfg.Extract), logger)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	s := &Searcher{
		cfg:       cfg,
		extractor: ex,
		logger:    logger.With("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.manager == nil {
		s.manager = browser.NewManager(logger,
			browser.WithLocator(browser.NewLocator()),
			browser.WithUserAgents(browser.NewUserAgentPool(cfg.Browser.UserAgents, nil)),
		)
	}
	if s.pacer == nil {
		s.pacer = pacing.New(logger)
	}
	return s, nil
}

// Search returns up to max listings for query. The returned Result is never
// nil. A non-nil error is a diagnostic: it is already logged and recorded in
// Result.Err, and the listings gathered so far are still returned.
func (s *Searcher) Search(ctx context.Context, query string, max int) (res *Result, err error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	res = &Result{
		ID:        uuid.NewString(),
		Query:     query,
		Listings:  []types.Listing{},
		StartedAt: start,
	}
	log := s.logger.With("search_id", res.ID, "query", query)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search %q: unexpected failure: %v", query, r)
		}
		res.Duration = time.Since(start)
		res.Err = err
		s.record(log, res)
	}()

	if query == "" {
		return res, types.ErrEmptyQuery
	}
	if max <= 0 {
		return res, fmt.Errorf("%w: got %d", types.ErrInvalidMax, max)
	}
	res.URL = buildURL(s.cfg.Marketplace.BaseURL, s.cfg.Marketplace.SearchPath, query)
	log.Info("search started", "url", res.URL, "max", max)

	sess, err := s.manager.Acquire(ctx, s.cfg.Browser)
	s.metrics.ObserveLaunch(err)
	if err != nil {
		return res, err
	}
	defer s.manager.Release(sess)

	if err := sess.Navigate(ctx, res.URL); err != nil {
		return res, &types.NavigationError{URL: res.URL, Err: err}
	}

	pc := s.cfg.Pacing
	if _, err := s.pacer.RandomDelay(ctx, pacing.Range{Min: pc.DelayMin, Max: pc.DelayMax}); err != nil {
		return res, err
	}

	if max > pc.SmallResultThreshold {
		n, err := s.pacer.HumanScroll(ctx, sess, pc.ScrollSteps, pacing.Range{Min: pc.ScrollDelayMin, Max: pc.ScrollDelayMax})
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			log.Warn("scrolling stopped early, extracting what is loaded", "scrolls", n, "error", err)
		}
	} else {
		log.Debug("small result set, skipping scroll", "max", max)
	}

	page, err := sess.HTML(ctx)
	if err != nil {
		return res, fmt.Errorf("read page %s: %w", res.URL, err)
	}

	listings, stats, err := s.extractor.Extract(page, res.URL, max)
	res.Listings = listings
	res.Stats = stats
	if err != nil {
		return res, err
	}

	if len(listings) == 0 {
		log.Info("no listings found", "title", sess.Title(ctx))
		shot, err := sess.Screenshot(ctx)
		if err != nil {
			log.Debug("debug screenshot failed", "error", err)
		} else {
			res.Screenshot = shot
		}
	}
	return res, nil
}

func (s *Searcher) record(log *slog.Logger, res *Result) {
	status := "ok"
	switch {
	case res.Err != nil:
		status = "error"
		log.Error("search failed",
			"error", res.Err,
			"listings", len(res.Listings),
			"duration", res.Duration.Round(time.Millisecond),
		)
	case len(res.Listings) == 0:
		status = "empty"
		log.Info("search finished without results", "duration", res.Duration.Round(time.Millisecond))
	default:
		log.Info("search finished",
			"listings", len(res.Listings),
			"skipped", res.Stats.Skipped,
			"duration", res.Duration.Round(time.Millisecond),
		)
	}
	s.metrics.ObserveSearch(status, res.Duration, len(res.Listings), res.Stats.Skipped)
}

// SearchAll runs queries one after another, each with its own browser, and
// pauses between them. Every query gets a Result; the returned error joins
// the per-query diagnostics.
func (s *Searcher) SearchAll(ctx context.Context, queries []string, max int) ([]*Result, error) {
	results := make([]*Result, 0, len(queries))
	var errs []error
	pc := s.cfg.Pacing
	for i, q := range queries {
		if i > 0 {
			if _, err := s.pacer.RandomDelay(ctx, pacing.Range{Min: pc.DelayMin, Max: pc.DelayMax}); err != nil {
				errs = append(errs, err)
				break
			}
		}
		res, err := s.Search(ctx, q, max)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return results, errors.Join(errs...)
}
