package types

// Listing is one marketplace item scraped from a search results page.
type Listing struct {
	// Name is the listing title as shown on the card.
	Name string `json:"name" bson:"name"`

	// Price is the display text, currency prefix included (e.g. "S$1,200").
	// It is never parsed into a number.
	Price string `json:"price" bson:"price"`

	// URL is the absolute link to the listing detail page.
	URL string `json:"url" bson:"url"`
}

// CSVHeader is the column order used wherever listings are written as rows.
var CSVHeader = []string{"name", "price", "url"}

// Record returns the listing as a CSV row in CSVHeader order.
func (l Listing) Record() []string {
	return []string{l.Name, l.Price, l.URL}
}

// ExtractionStats summarizes a single extraction pass.
type ExtractionStats struct {
	// Selector is the container selector that matched, empty if none did.
	Selector string `json:"selector,omitempty"`

	// Containers is the number of listing containers found on the page.
	Containers int `json:"containers"`

	// Extracted is the number of listings returned.
	Extracted int `json:"extracted"`

	// Skipped counts containers dropped for a missing name, price or link.
	Skipped int `json:"skipped"`

	// Duplicates counts containers dropped because their URL was already seen.
	Duplicates int `json:"duplicates"`
}
