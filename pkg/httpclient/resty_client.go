package httpclient

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultMaxRedirects = 10

// Options tunes the resty transport.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int
	// MaxBodyBytes stops reading a response body after this many bytes. The
	// rest of the body is never downloaded. Zero reads the whole body.
	MaxBodyBytes int64
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client       *resty.Client
	maxBodyBytes int64
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return NewRestyClientWithOptions(Options{Timeout: timeout})
}

// NewRestyClientWithOptions creates a RestyClient from the given options.
func NewRestyClientWithOptions(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(opts), maxBodyBytes: opts.MaxBodyBytes}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(Options{Timeout: timeout})
}

func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	redirects := opts.MaxRedirects
	if redirects <= 0 {
		redirects = defaultMaxRedirects
	}
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(redirects))
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if r.maxBodyBytes <= 0 {
		resp, err := req.Get(url)
		if err != nil {
			return nil, err
		}
		return &restyResponseAdapter{status: resp.StatusCode(), body: resp.Body()}, nil
	}

	resp, err := req.SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, err
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, r.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &restyResponseAdapter{status: resp.StatusCode(), body: body}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	status int
	body   []byte
}

func (r *restyResponseAdapter) Body() []byte    { return r.body }
func (r *restyResponseAdapter) StatusCode() int { return r.status }
