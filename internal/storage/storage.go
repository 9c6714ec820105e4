package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the last crawl outcome per URL.

// Outcome statuses.
const (
	StatusCrawled = "crawled"
	StatusFailed  = "failed"
)

// Outcome is the most recent result recorded for one URL.
type Outcome struct {
	URL         string    `json:"url"`
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store persists outcomes. Lookups never drive crawl decisions.
type Store interface {
	Close() error
	RecordOutcome(o Outcome) error
	Outcome(url string) (Outcome, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	OutcomeTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultOutcomeTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OutcomeTTL <= 0 {
		opts.OutcomeTTL = defaultOutcomeTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                          { return nil }
func (noopStore) RecordOutcome(Outcome) error           { return nil }
func (noopStore) Outcome(string) (Outcome, bool, error) { return Outcome{}, false, nil }
