package extract

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"testing"

	"github.com/IshaanNene/carousell-scraper/internal/browser/browsertest"
	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const base = "https://www.carousell.sg/search/laptop"

// complete reports whether every field is set and URL is an absolute
// http(s) link.
func complete(l types.Listing) bool {
	if l.Name == "" || l.Price == "" || l.URL == "" {
		return false
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func newExtractor(t *testing.T, sel Selectors) *Extractor {
	t.Helper()
	e, err := New(sel, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExtractStopsAtMax(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())
	page := browsertest.ResultsPage(browsertest.Cards("Laptop", 8)...)

	listings, stats, err := e.Extract(page, base, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 5 {
		t.Fatalf("expected 5 listings, got %d", len(listings))
	}
	want := []types.Listing{
		{Name: "Laptop 1", Price: "S$100", URL: "https://www.carousell.sg/p/laptop-1-1000"},
		{Name: "Laptop 2", Price: "S$200", URL: "https://www.carousell.sg/p/laptop-2-1001"},
	}
	for i, w := range want {
		if listings[i] != w {
			t.Errorf("listing %d = %+v, want %+v", i, listings[i], w)
		}
	}
	if listings[4].Name != "Laptop 5" {
		t.Errorf("expected document order, last listing %q", listings[4].Name)
	}
	for _, l := range listings {
		if !complete(l) {
			t.Errorf("invalid listing %+v", l)
		}
	}
	if stats.Containers != 8 || stats.Extracted != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Selector != `[data-testid^="listing-card"]` {
		t.Errorf("unexpected container selector %q", stats.Selector)
	}
}

func TestExtractFewerThanMax(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())
	page := browsertest.ResultsPage(browsertest.Cards("Bike", 3)...)

	listings, _, err := e.Extract(page, base, 20)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}
}

func TestExtractSkipsIncompleteCards(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())
	cards := browsertest.Cards("Phone", 4)
	cards[1].Price = ""
	cards[2].Href = ""

	listings, stats, err := e.Extract(browsertest.ResultsPage(cards...), base, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d: %+v", len(listings), listings)
	}
	if listings[0].Name != "Phone 1" || listings[1].Name != "Phone 4" {
		t.Errorf("unexpected listings %+v", listings)
	}
	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", stats.Skipped)
	}
}

func TestExtractNoContainers(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())

	listings, stats, err := e.Extract(browsertest.EmptyPage, base, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if listings == nil {
		t.Fatal("listings must be non-nil")
	}
	if len(listings) != 0 || stats.Containers != 0 || stats.Selector != "" {
		t.Errorf("expected nothing, got %d listings, stats %+v", len(listings), stats)
	}
}

func TestExtractDeduplicatesByURL(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())
	cards := browsertest.Cards("Desk", 3)
	cards[2].Href = cards[0].Href + "#reviews"

	listings, stats, err := e.Extract(browsertest.ResultsPage(cards...), base, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 2 || stats.Duplicates != 1 {
		t.Errorf("expected 2 listings and 1 duplicate, got %d and %d", len(listings), stats.Duplicates)
	}
}

func TestExtractFallbacks(t *testing.T) {
	page := `<html><body>
<div data-testid="listing-card-1">
  <a href="https://www.carousell.sg/p/camera-1#top"></a>
  <h3>S$20</h3>
  <span>2 hours ago</span>
  <span>Vintage film camera</span>
  <span>S$ 1,250.50 negotiable</span>
</div>
</body></html>`
	e := newExtractor(t, DefaultSelectors())

	listings, _, err := e.Extract(page, base, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	got := listings[0]
	if got.Name != "Vintage film camera" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Price != "S$20" {
		t.Errorf("price = %q", got.Price)
	}
	if got.URL != "https://www.carousell.sg/p/camera-1" {
		t.Errorf("url = %q", got.URL)
	}
}

func TestExtractPriceRegexFallback(t *testing.T) {
	page := `<html><body>
<article>
  <a href="/p/sofa-9"><span>Three seater sofa</span></a>
  <div><span>S$ 1,200.00</span></div>
</article>
</body></html>`
	e := newExtractor(t, DefaultSelectors())

	listings, stats, err := e.Extract(page, base, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if stats.Selector != "article" {
		t.Errorf("expected article containers, got %q", stats.Selector)
	}
	if len(listings) != 1 || listings[0].Price != "S$ 1,200.00" {
		t.Fatalf("unexpected listings %+v", listings)
	}
}

func TestExtractAnchorContainer(t *testing.T) {
	page := `<html><body>
<a class="card" href="/p/kettle-1"><h4>Electric kettle</h4><b>S$15</b></a>
<a class="card" href="/p/kettle-2"><h4>Glass kettle</h4><b>S$22</b></a>
</body></html>`
	sel := DefaultSelectors()
	sel.Containers = []string{"a.card"}
	sel.Price = []string{"b"}
	e := newExtractor(t, sel)

	listings, _, err := e.Extract(page, base, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[1].URL != "https://www.carousell.sg/p/kettle-2" {
		t.Errorf("url = %q", listings[1].URL)
	}
}

func TestExtractXPathSelectors(t *testing.T) {
	page := `<html><body>
<div class="card"><a href="/p/lamp-1">view</a><h3>Desk lamp</h3><span class="cost">S$12</span></div>
<div class="card"><a href="/p/lamp-2">view</a><h3>Floor lamp</h3><span class="cost">S$40</span></div>
</body></html>`
	sel := Selectors{
		Containers: []string{"xpath://div[@class='card']"},
		Name:       []string{"xpath:.//h3"},
		Price:      []string{"xpath:.//span[@class='cost']"},
		Link:       []string{"xpath:.//a[@href]"},
	}
	e := newExtractor(t, sel)

	listings, _, err := e.Extract(page, base, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []types.Listing{
		{Name: "Desk lamp", Price: "S$12", URL: "https://www.carousell.sg/p/lamp-1"},
		{Name: "Floor lamp", Price: "S$40", URL: "https://www.carousell.sg/p/lamp-2"},
	}
	if len(listings) != len(want) {
		t.Fatalf("expected %d listings, got %d", len(want), len(listings))
	}
	for i := range want {
		if listings[i] != want[i] {
			t.Errorf("listing %d = %+v, want %+v", i, listings[i], want[i])
		}
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	e := newExtractor(t, DefaultSelectors())

	if _, _, err := e.Extract("<html></html>", base, 0); !errors.Is(err, types.ErrInvalidMax) {
		t.Errorf("expected ErrInvalidMax, got %v", err)
	}
	var perr *types.ParseError
	if _, _, err := e.Extract("<html></html>", "/search/laptop", 5); !errors.As(err, &perr) {
		t.Errorf("expected ParseError for relative base, got %v", err)
	}
	if _, _, err := e.Extract("<html></html>", "/search/laptop", 5); !errors.Is(err, types.ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestNewRejectsInvalidSelectors(t *testing.T) {
	tests := []struct {
		name string
		sel  Selectors
	}{
		{"bad css", Selectors{Containers: []string{"div[[["}}},
		{"bad xpath", Selectors{Containers: []string{"article"}, Name: []string{"xpath://div[@"}}},
		{"no containers", Selectors{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.sel, testLogger); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSelectorsFromConfig(t *testing.T) {
	sel := SelectorsFromConfig(config.ExtractConfig{Price: []string{".cost"}})
	if len(sel.Price) != 1 || sel.Price[0] != ".cost" {
		t.Errorf("price override not applied: %v", sel.Price)
	}
	if len(sel.Containers) != len(DefaultSelectors().Containers) {
		t.Errorf("containers should keep defaults: %v", sel.Containers)
	}
}
