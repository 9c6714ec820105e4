package domain

import "strings"

// Sentinel values written when a page lacks the corresponding field.
const (
	NoTitle       = "No title"
	NoDescription = "No description"
)

// CrawlResult is one output row. Build it with NewCrawlResult so the
// sentinel defaults are always applied.
type CrawlResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewCrawlResult builds a result for url. Empty or whitespace-only title and
// description are treated as absent and replaced by NoTitle / NoDescription.
func NewCrawlResult(url, title, description string) CrawlResult {
	return CrawlResult{
		URL:         url,
		Title:       orDefault(title, NoTitle),
		Description: orDefault(description, NoDescription),
	}
}

// Record returns the fields in output order: url, title, description.
func (r CrawlResult) Record() []string {
	return []string{r.URL, r.Title, r.Description}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
