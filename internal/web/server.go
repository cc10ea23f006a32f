// Package web serves a search form, a JSON search API and CSV downloads on
// top of a Searcher.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/observability"
	"github.com/IshaanNene/carousell-scraper/internal/search"
	"github.com/IshaanNene/carousell-scraper/internal/storage"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// Searcher is the part of search.Searcher the server needs.
type Searcher interface {
	Search(ctx context.Context, query string, max int) (*search.Result, error)
}

// Server handles web requests. Scrapes run one at a time.
type Server struct {
	searcher   Searcher
	cfg        config.WebConfig
	defaultMax int
	cache      *expirable.LRU[string, *search.Result]
	sem        *semaphore.Weighted
	metrics    *observability.Metrics
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server. defaultMax is used when a request omits max.
func NewServer(s Searcher, cfg config.WebConfig, defaultMax int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	srv := &Server{
		searcher:   s,
		cfg:        cfg,
		defaultMax: defaultMax,
		sem:        semaphore.NewWeighted(1),
		metrics:    metrics,
		mux:        http.NewServeMux(),
		logger:     logger.With("component", "web_server"),
	}
	if cfg.CacheSize > 0 {
		srv.cache = expirable.NewLRU[string, *search.Result](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/search.csv", s.handleSearchCSV)
}

// Handler returns the server's routes with response compression.
func (s *Server) Handler() http.Handler {
	return compress(s.mux)
}

// Serve listens on cfg.Addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server starting", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// request is a validated search request.
type request struct {
	query string
	max   int
}

func (s *Server) parse(r *http.Request) (request, error) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return request{}, types.ErrEmptyQuery
	}
	req := request{query: q, max: s.defaultMax}
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.cfg.MaxResults {
			return request{}, fmt.Errorf("%w: max must be between 1 and %d", types.ErrInvalidMax, s.cfg.MaxResults)
		}
		req.max = n
	}
	if req.max > s.cfg.MaxResults {
		req.max = s.cfg.MaxResults
	}
	return req, nil
}

func cacheKey(req request) string {
	return strings.ToLower(req.query) + "|" + strconv.Itoa(req.max)
}

// run serves req from the cache or runs a scrape.
func (s *Server) run(ctx context.Context, req request) (*search.Result, error) {
	key := cacheKey(req)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.metrics.ObserveCache(true)
			s.logger.Debug("cache hit", "query", req.query, "max", req.max)
			return res, nil
		}
		s.metrics.ObserveCache(false)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	// a concurrent request may have filled the cache while we waited
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res, nil
		}
	}

	res, err := s.searcher.Search(ctx, req.query, req.max)
	// an empty page is often a challenge or a temporary block
	if err == nil && s.cache != nil && len(res.Listings) > 0 {
		s.cache.Add(key, res)
	}
	return res, err
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrEmptyQuery), errors.Is(err, types.ErrInvalidMax):
		return http.StatusBadRequest
	case types.IsBrowserNotFound(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

// searchResponse is the JSON body of /api/search.
type searchResponse struct {
	ID         string                `json:"id,omitempty"`
	Query      string                `json:"query"`
	URL        string                `json:"url,omitempty"`
	Count      int                   `json:"count"`
	Listings   []types.Listing       `json:"listings"`
	Stats      types.ExtractionStats `json:"stats"`
	DurationMS int64                 `json:"duration_ms"`
	Error      string                `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := s.parse(r)
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := s.run(r.Context(), req)
	if res == nil {
		s.jsonResponse(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	body := searchResponse{
		ID:         res.ID,
		Query:      res.Query,
		URL:        res.URL,
		Count:      len(res.Listings),
		Listings:   res.Listings,
		Stats:      res.Stats,
		DurationMS: res.Duration.Milliseconds(),
	}
	status := http.StatusOK
	if err != nil {
		body.Error = err.Error()
		// partial results are still a successful response
		if len(res.Listings) == 0 {
			status = statusFor(err)
		}
	}
	s.jsonResponse(w, status, body)
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func (s *Server) handleSearchCSV(w http.ResponseWriter, r *http.Request) {
	req, err := s.parse(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.run(r.Context(), req)
	if res == nil || (err != nil && len(res.Listings) == 0) {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	name := unsafeFilename.ReplaceAllString(strings.ToLower(req.query), "_")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="carousell_%s.csv"`, name))
	if err := storage.WriteCSV(w, res.Listings); err != nil {
		s.logger.Error("CSV write failed", "error", err)
	}
}

// pageData feeds the index template.
type pageData struct {
	Query   string
	Max     int
	Limit   int
	Result  *search.Result
	Elapsed time.Duration
	Error   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Max:   s.defaultMax,
		Limit: s.cfg.MaxResults,
	}

	status := http.StatusOK
	if data.Query != "" {
		req, err := s.parse(r)
		if err != nil {
			data.Error = err.Error()
			status = http.StatusBadRequest
		} else {
			data.Max = req.max
			res, err := s.run(r.Context(), req)
			data.Result = res
			if res != nil {
				data.Elapsed = res.Duration.Round(100 * time.Millisecond)
			}
			if err != nil {
				data.Error = describe(err)
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// describe turns a search diagnostic into a message for the form page.
func describe(err error) string {
	var nav *types.NavigationError
	switch {
	case types.IsBrowserNotFound(err):
		return err.Error()
	case errors.As(err, &nav):
		return "Could not load Carousell. Check your internet connection and try again."
	default:
		return "Search failed: " + err.Error()
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

// compressWriter sends the body through a brotli or gzip encoder.
type compressWriter struct {
	http.ResponseWriter
	w io.Writer
}

func (c *compressWriter) Write(p []byte) (int, error) { return c.w.Write(p) }

// compress negotiates brotli or gzip from Accept-Encoding.
func compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") == "" {
			next.ServeHTTP(w, r)
			return
		}
		enc := brotli.HTTPCompressor(w, r)
		defer enc.Close()
		w.Header().Del("Content-Length")
		next.ServeHTTP(&compressWriter{ResponseWriter: w, w: enc}, r)
	})
}
