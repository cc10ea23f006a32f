// Package extract reads listing cards out of a rendered search results page.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// Selectors lists candidate queries per field, tried in order. Prefix a
// selector with "xpath:" to evaluate it as XPath.
type Selectors struct {
	Containers []string
	Name       []string
	Price      []string
	Link       []string
}

// DefaultSelectors matches Carousell listing cards.
func DefaultSelectors() Selectors {
	return Selectors{
		Containers: []string{
			`[data-testid^="listing-card"]`,
			`article`,
			`[class*="ListingCard"]`,
			`[class*="ProductCard"]`,
		},
		Name: []string{
			`[data-testid*="title"]`,
			`p[style*="line-clamp"]`,
			`h3`, `h4`, `h2`,
			`[class*="title"]`,
			`[class*="Title"]`,
			`[class*="name"]`,
		},
		Price: []string{
			`[data-testid*="price"]`,
			`p[title^="S$"]`,
			`[class*="price"]`,
			`[class*="Price"]`,
		},
		Link: []string{
			`a[href*="/p/"]`,
		},
	}
}

// SelectorsFromConfig overlays non-empty config lists on the defaults.
func SelectorsFromConfig(cfg config.ExtractConfig) Selectors {
	s := DefaultSelectors()
	if len(cfg.Containers) > 0 {
		s.Containers = cfg.Containers
	}
	if len(cfg.Name) > 0 {
		s.Name = cfg.Name
	}
	if len(cfg.Price) > 0 {
		s.Price = cfg.Price
	}
	if len(cfg.Link) > 0 {
		s.Link = cfg.Link
	}
	return s
}

var (
	priceRe = regexp.MustCompile(`S?\$\s*[\d,]+(?:\.\d{1,2})?`)
	agoRe   = regexp.MustCompile(`(?i)\b(ago|just now)\b`)
)

// Extractor turns page HTML into listings. It is safe for concurrent use.
type Extractor struct {
	containers []selector
	name       []selector
	price      []selector
	link       []selector
	logger     *slog.Logger
}

// New compiles sel into an Extractor.
func New(sel Selectors, logger *slog.Logger) (*Extractor, error) {
	e := &Extractor{logger: logger.With("component", "extractor")}
	var err error
	if e.containers, err = compileAll(sel.Containers); err != nil {
		return nil, fmt.Errorf("containers: %w", err)
	}
	if e.name, err = compileAll(sel.Name); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if e.price, err = compileAll(sel.Price); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if e.link, err = compileAll(sel.Link); err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	if len(e.containers) == 0 {
		return nil, fmt.Errorf("at least one container selector is required")
	}
	return e, nil
}

// Extract reads up to max listings from page in document order. Cards
// missing a name, price or link are skipped and counted, never reported as
// errors. Only the first rendered results screen is considered.
func (e *Extractor) Extract(page, baseURL string, max int) ([]types.Listing, types.ExtractionStats, error) {
	var stats types.ExtractionStats
	listings := []types.Listing{}

	if max <= 0 {
		return listings, stats, types.ErrInvalidMax
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return listings, stats, &types.ParseError{URL: baseURL, Err: fmt.Errorf("%w: base URL must be absolute", types.ErrExtractionFailed)}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return listings, stats, &types.ParseError{URL: baseURL, Err: fmt.Errorf("%w: %w", types.ErrExtractionFailed, err)}
	}

	cards, matched := e.findContainers(doc.Selection)
	stats.Selector = matched
	stats.Containers = cards.Length()
	if stats.Containers == 0 {
		e.logger.Info("no listing containers found, page structure may have changed", "url", baseURL)
		return listings, stats, nil
	}

	seen := make(map[string]struct{}, stats.Containers)
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(listings) >= max {
			return false
		}
		l, ok := e.readCard(card, base)
		if !ok {
			stats.Skipped++
			return true
		}
		if _, dup := seen[l.URL]; dup {
			stats.Duplicates++
			return true
		}
		seen[l.URL] = struct{}{}
		listings = append(listings, l)
		return true
	})
	stats.Extracted = len(listings)

	e.logger.Debug("extraction complete",
		"selector", stats.Selector,
		"containers", stats.Containers,
		"extracted", stats.Extracted,
		"skipped", stats.Skipped,
		"duplicates", stats.Duplicates,
	)
	return listings, stats, nil
}

// findContainers returns the cards matched by the first container selector
// that matches anything.
func (e *Extractor) findContainers(root *goquery.Selection) (*goquery.Selection, string) {
	for _, s := range e.containers {
		found := s.find(root)
		e.logger.Debug("trying container selector", "selector", s, "matches", found.Length())
		if found.Length() > 0 {
			return found, s.String()
		}
	}
	return root.Slice(0, 0), ""
}

func (e *Extractor) readCard(card *goquery.Selection, base *url.URL) (types.Listing, bool) {
	link := e.readLink(card, base)
	if link == "" {
		return types.Listing{}, false
	}
	lines := textLines(card)
	name := e.readName(card, lines)
	if name == "" {
		return types.Listing{}, false
	}
	price := e.readPrice(card, lines)
	if price == "" {
		return types.Listing{}, false
	}
	return types.Listing{Name: name, Price: price, URL: link}, true
}

func (e *Extractor) readLink(card *goquery.Selection, base *url.URL) string {
	if goquery.NodeName(card) == "a" {
		if u := resolve(base, card.AttrOr("href", "")); u != "" {
			return u
		}
	}
	for _, s := range e.link {
		var found string
		s.find(card).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			found = resolve(base, a.AttrOr("href", ""))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (e *Extractor) readName(card *goquery.Selection, lines []string) string {
	for _, s := range e.name {
		var found string
		s.find(card).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := clean(el.Text())
			if isName(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	for _, line := range lines {
		if isName(line) && !agoRe.MatchString(line) {
			return line
		}
	}
	return ""
}

func (e *Extractor) readPrice(card *goquery.Selection, lines []string) string {
	for _, s := range e.price {
		var found string
		s.find(card).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := clean(el.Text())
			if strings.Contains(text, "$") {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	if m := priceRe.FindString(strings.Join(lines, "\n")); m != "" {
		return m
	}
	return ""
}

// isName accepts text that is long enough and does not look like a price.
func isName(text string) bool {
	return utf8.RuneCountInString(text) > 3 && !strings.Contains(text, "$")
}

// resolve turns href into an absolute http(s) URL without fragment, or "".
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// clean collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textLines returns the card's non-empty text nodes in document order,
// approximating the lines a user sees on the card.
func textLines(card *goquery.Selection) []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := clean(n.Data); t != "" {
				lines = append(lines, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range card.Nodes {
		walk(n)
	}
	return lines
}
