package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// xpathPrefix marks a selector string as an XPath expression.
const xpathPrefix = "xpath:"

// selector is a compiled CSS or XPath query evaluated relative to a node set.
type selector struct {
	raw   string
	css   string
	xpath string
}

func compileSelector(raw string) (selector, error) {
	raw = strings.TrimSpace(raw)
	if expr, ok := strings.CutPrefix(raw, xpathPrefix); ok {
		expr = strings.TrimSpace(expr)
		// QueryAll compiles the expression; an empty document is enough.
		if _, err := htmlquery.QueryAll(&html.Node{Type: html.DocumentNode}, expr); err != nil {
			return selector{}, fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		return selector{raw: raw, xpath: expr}, nil
	}

	if _, err := cascadia.ParseGroup(raw); err != nil {
		return selector{}, fmt.Errorf("invalid css selector %q: %w", raw, err)
	}
	return selector{raw: raw, css: raw}, nil
}

func compileAll(raws []string) ([]selector, error) {
	out := make([]selector, 0, len(raws))
	for _, r := range raws {
		s, err := compileSelector(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// find returns matching descendants of root in document order.
func (s selector) find(root *goquery.Selection) *goquery.Selection {
	if s.css != "" {
		return root.Find(s.css)
	}

	var nodes []*html.Node
	for _, n := range root.Nodes {
		found, err := htmlquery.QueryAll(n, s.xpath)
		if err != nil {
			continue
		}
		nodes = append(nodes, found...)
	}
	return root.FindNodes(nodes...)
}

func (s selector) String() string { return s.raw }
