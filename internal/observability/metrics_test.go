package observability

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestSnapshotCountsObservations(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveSearch("ok", 3*time.Second, 5, 2)
	m.ObserveSearch("empty", time.Second, 0, 0)
	m.ObserveLaunch(nil)
	m.ObserveLaunch(errors.New("boom"))
	m.ObserveStored("csv", 5)
	m.ObserveCache(true)

	snap := m.Snapshot()
	tests := map[string]float64{
		"carousell_searches_total":           2,
		"carousell_listings_extracted_total": 5,
		"carousell_listings_skipped_total":   2,
		"carousell_browser_launches_total":   2,
		"carousell_listings_stored_total":    5,
		"carousell_web_cache_lookups_total":  1,
	}
	for name, want := range tests {
		if got := snap[name]; got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSearch("error", time.Second, 0, 0)
	m.ObserveLaunch(nil)
	m.ObserveStored("json", 1)
	m.ObserveCache(false)
	if len(m.Snapshot()) != 0 {
		t.Error("nil metrics should report nothing")
	}
}

func TestHandlerExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveSearch("ok", 2*time.Second, 3, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`carousell_searches_total{status="ok"} 1`,
		"carousell_listings_extracted_total 3",
		"carousell_search_duration_seconds_count 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
