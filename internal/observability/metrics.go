// Package observability exposes Prometheus metrics for searches, browser
// sessions, storage and the web cache.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the scraper's collectors on a dedicated registry. All
// methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	SearchesTotal     *prometheus.CounterVec
	SearchDuration    prometheus.Histogram
	ListingsExtracted prometheus.Counter
	ListingsSkipped   prometheus.Counter
	BrowserLaunches   *prometheus.CounterVec
	ListingsStored    *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics creates and registers all collectors.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carousell_searches_total",
			Help: "Searches run, by outcome.",
		}, []string{"status"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "carousell_search_duration_seconds",
			Help:    "Wall time of a search including browser start and pacing.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		ListingsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carousell_listings_extracted_total",
			Help: "Listings returned to callers.",
		}),
		ListingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carousell_listings_skipped_total",
			Help: "Listing cards dropped because a field was missing.",
		}),
		BrowserLaunches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carousell_browser_launches_total",
			Help: "Browser session acquisitions, by result.",
		}, []string{"result"}),
		ListingsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carousell_listings_stored_total",
			Help: "Listings written to storage, by backend.",
		}, []string{"backend"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carousell_web_cache_lookups_total",
			Help: "Web result cache lookups, by result.",
		}, []string{"result"}),
		logger: logger.With("component", "metrics"),
	}
	m.Registry.MustRegister(
		m.SearchesTotal,
		m.SearchDuration,
		m.ListingsExtracted,
		m.ListingsSkipped,
		m.BrowserLaunches,
		m.ListingsStored,
		m.CacheLookups,
	)
	return m
}

// ObserveSearch records one finished search. status is "ok", "empty" or
// "error".
func (m *Metrics) ObserveSearch(status string, d time.Duration, extracted, skipped int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(d.Seconds())
	m.ListingsExtracted.Add(float64(extracted))
	m.ListingsSkipped.Add(float64(skipped))
}

// ObserveLaunch records a browser acquisition attempt.
func (m *Metrics) ObserveLaunch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BrowserLaunches.WithLabelValues(result).Inc()
}

// ObserveStored records listings written by a storage backend.
func (m *Metrics) ObserveStored(backend string, n int) {
	if m == nil {
		return
	}
	m.ListingsStored.WithLabelValues(backend).Add(float64(n))
}

// ObserveCache records a web cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Server is a running metrics endpoint.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// StartServer serves metrics on port at path until Stop is called.
func (m *Metrics) StartServer(port int, path string) *Server {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	s := &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: m.logger,
	}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	return s
}

// Stop shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Snapshot sums every counter family by name, for logs and summaries.
func (m *Metrics) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	if m == nil {
		return out
	}
	families, err := m.Registry.Gather()
	if err != nil {
		m.logger.Warn("gather metrics failed", "error", err)
		return out
	}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				out[f.GetName()] += c.GetValue()
			}
		}
	}
	return out
}
