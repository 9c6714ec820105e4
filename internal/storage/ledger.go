package storage

import (
	"context"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
)

// Ledger records each crawl outcome of a run into a Store. Write failures
// are logged and never affect the crawl.
type Ledger struct {
	store Store
	runID string
	log   logger.Logger
}

// NewLedger returns a Ledger writing outcomes of runID into store.
func NewLedger(store Store, runID string, log logger.Logger) *Ledger {
	return &Ledger{store: store, runID: runID, log: logger.Ensure(log)}
}

func (l *Ledger) ObserveSuccess(_ context.Context, res domain.CrawlResult) {
	l.record(Outcome{
		URL:         res.URL,
		RunID:       l.runID,
		Status:      StatusCrawled,
		Title:       res.Title,
		Description: res.Description,
	})
}

func (l *Ledger) ObserveFailure(_ context.Context, url string, err error) {
	o := Outcome{URL: url, RunID: l.runID, Status: StatusFailed}
	if err != nil {
		o.Error = err.Error()
	}
	l.record(o)
}

func (l *Ledger) record(o Outcome) {
	if l == nil || l.store == nil {
		return
	}
	if err := l.store.RecordOutcome(o); err != nil {
		l.log.WarnObj("outcome ledger write failed", "storage_error", map[string]any{
			"url":    o.URL,
			"run_id": l.runID,
			"error":  err.Error(),
		})
	}
}
