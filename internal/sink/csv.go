// Package sink persists crawl results.
package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// ErrNotPrepared is returned by Append before Prepare succeeded or after Close.
var ErrNotPrepared = errors.New("csv sink is not prepared")

// CSVSink writes one CSV row per result. Rows are serialized by a single
// mutex held across write and flush, so concurrent appends never interleave.
type CSVSink struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewCSVSink returns a sink for path. Nothing is touched until Prepare.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the output file path.
func (s *CSVSink) Path() string { return s.path }

// Prepare creates or truncates the output file. Calling it again starts a
// fresh file.
func (s *CSVSink) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeLocked(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	s.file = f
	s.writer = csv.NewWriter(f)
	s.rows = 0
	return nil
}

// Append writes res as one row: url, title, description.
func (s *CSVSink) Append(_ context.Context, res domain.CrawlResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return ErrNotPrepared
	}
	if err := s.writer.Write(res.Record()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	s.rows++
	return nil
}

// Rows reports how many rows were written since the last Prepare.
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes, syncs and closes the output file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *CSVSink) closeLocked() error {
	if s.file == nil {
		return nil
	}
	var errs []error
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		errs = append(errs, fmt.Errorf("flush output: %w", err))
	}
	if err := s.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync output: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	s.file = nil
	s.writer = nil
	return errors.Join(errs...)
}
