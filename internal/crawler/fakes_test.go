package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// fakeFetcher serves canned bodies by URL; unknown URLs time out.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	block   map[string]chan struct{}
	calls   map[string]int
	started chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string]string),
		errs:   make(map[string]error),
		block:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	body, okBody := f.bodies[url]
	err := f.errs[url]
	gate := f.block[url]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- url
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if !okBody {
		return nil, &FetchError{URL: url, Err: context.DeadlineExceeded}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// memorySink collects rows in append order.
type memorySink struct {
	mu       sync.Mutex
	rows     []domain.CrawlResult
	prepared int
	err      error
	prepErr  error
}

func (m *memorySink) Prepare() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prepErr != nil {
		return m.prepErr
	}
	m.prepared++
	m.rows = nil
	return nil
}

func (m *memorySink) Append(_ context.Context, res domain.CrawlResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, res)
	return nil
}

func (m *memorySink) snapshot() []domain.CrawlResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CrawlResult(nil), m.rows...)
}

// recordingObserver keeps every outcome it sees.
type recordingObserver struct {
	mu        sync.Mutex
	successes []string
	failures  map[string]error
}

func (r *recordingObserver) ObserveSuccess(_ context.Context, res domain.CrawlResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, res.URL)
}

func (r *recordingObserver) ObserveFailure(_ context.Context, url string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures == nil {
		r.failures = make(map[string]error)
	}
	r.failures[url] = err
}

type panickingExtractor struct{}

func (panickingExtractor) Extract([]byte) (Extraction, error) {
	panic("boom")
}

type failingExtractor struct{}

func (failingExtractor) Extract([]byte) (Extraction, error) {
	return Extraction{}, errors.New("unreadable document")
}
