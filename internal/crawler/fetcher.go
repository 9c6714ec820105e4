package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/pagemeta-crawler/pkg/httpclient"
)

const (
	defaultMaxBodyBytes = 1 << 20 // 1 MiB
	maxErrorSnippet     = 256
)

// FetcherOptions configures an HTTPFetcher.
type FetcherOptions struct {
	// MaxBodyBytes caps how much of a body is handed to extraction. Pair it
	// with httpclient.Options.MaxBodyBytes so the remainder is never read.
	MaxBodyBytes int64
	// FailOnHTTPStatus turns non-2xx responses into fetch errors. By default
	// any response with a body is extracted regardless of status.
	FailOnHTTPStatus bool
	Headers          map[string]string
}

// HTTPFetcher performs a single GET per URL through an httpclient.Client.
type HTTPFetcher struct {
	client httpclient.Client
	opts   FetcherOptions
}

// NewHTTPFetcher builds a fetcher over client (or a default resty client).
func NewHTTPFetcher(client httpclient.Client, opts FetcherOptions) *HTTPFetcher {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if client == nil {
		client = httpclient.NewRestyClientWithOptions(httpclient.Options{MaxBodyBytes: opts.MaxBodyBytes})
	}
	return &HTTPFetcher{client: client, opts: opts}
}

// Fetch downloads url, bounding the request by timeout. Every failure is
// returned as a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.client.Get(ctx, url, f.opts.Headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	if resp == nil {
		return nil, &FetchError{URL: url, Err: errors.New("empty response")}
	}

	body := resp.Body()
	if f.opts.FailOnHTTPStatus && (resp.StatusCode() < 200 || resp.StatusCode() > 299) {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet(body))}
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		body = body[:f.opts.MaxBodyBytes]
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
