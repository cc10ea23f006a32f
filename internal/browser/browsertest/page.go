package browsertest

import (
	"fmt"
	"strings"
)

// Card describes one listing card in a generated results page. An empty
// Price or Href leaves that element out of the card.
type Card struct {
	Name  string
	Price string
	Href  string
}

// Cards returns n complete cards named "<prefix> 1" .. "<prefix> n".
func Cards(prefix string, n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{
			Name:  fmt.Sprintf("%s %d", prefix, i+1),
			Price: fmt.Sprintf("S$%d", (i+1)*100),
			Href:  fmt.Sprintf("/p/%s-%d-%d", strings.ToLower(strings.ReplaceAll(prefix, " ", "-")), i+1, 1000+i),
		}
	}
	return cards
}

// ResultsPage renders cards with the markup the marketplace uses for its
// search results grid.
func ResultsPage(cards ...Card) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Search results | Carousell Singapore</title></head><body><main><div id="results">`)
	for i, c := range cards {
		fmt.Fprintf(&b, `<div data-testid="listing-card-%d">`, i+1)
		if c.Href != "" {
			fmt.Fprintf(&b, `<a href="%s"><img src="/img/%d.jpg" alt=""></a>`, c.Href, i+1)
		}
		b.WriteString(`<div>`)
		if c.Name != "" {
			fmt.Fprintf(&b, `<p style="overflow:hidden;-webkit-line-clamp:2">%s</p>`, c.Name)
		}
		if c.Price != "" {
			fmt.Fprintf(&b, `<p title="%s">%s</p>`, c.Price, c.Price)
		}
		b.WriteString(`<p>3 days ago</p></div></div>`)
	}
	b.WriteString(`</div></main></body></html>`)
	return b.String()
}

// EmptyPage is a results page with no listings.
const EmptyPage = `<!DOCTYPE html><html><head><title>Carousell Singapore</title></head>` +
	`<body><main><h2>No results found</h2><p>Try a different keyword.</p></main></body></html>`
