package crawler

import (
	"context"
	"time"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// Fetcher retrieves the raw body for a URL within timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Extractor pulls the title and meta description out of a response body.
// Absent fields come back as empty strings.
type Extractor interface {
	Extract(body []byte) (Extraction, error)
}

// Extraction holds the raw fields found in a document.
type Extraction struct {
	Title       string
	Description string
}

// ResultSink appends one result as an indivisible record.
type ResultSink interface {
	Append(ctx context.Context, res domain.CrawlResult) error
}

// WorkQueue is the pull side of the shared queue used by workers.
type WorkQueue interface {
	TryPull() (string, bool)
	Acknowledge() error
}

// Observer receives per-item outcomes after the sink has been written.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveSuccess(ctx context.Context, res domain.CrawlResult)
	ObserveFailure(ctx context.Context, url string, err error)
}
