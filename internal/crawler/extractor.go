package crawler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLExtractor reads the document title and the standard meta description.
type HTMLExtractor struct{}

// NewHTMLExtractor returns a goquery-backed extractor.
func NewHTMLExtractor() HTMLExtractor { return HTMLExtractor{} }

// Extract parses body as HTML. The first <title> element supplies the title
// and meta[name="description"] supplies the description; both are trimmed.
func (HTMLExtractor) Extract(body []byte) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse html: %w", err)
	}

	var out Extraction
	if title := doc.Find("title").First(); title.Length() > 0 {
		out.Title = strings.TrimSpace(title.Text())
	}
	if node := doc.Find(`meta[name="description"]`).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok {
			out.Description = strings.TrimSpace(val)
		}
	}
	return out, nil
}
