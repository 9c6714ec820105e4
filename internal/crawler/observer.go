package crawler

import (
	"context"
	"sync/atomic"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// Observers fans an outcome out to every non-nil observer in order.
type Observers []Observer

func (o Observers) ObserveSuccess(ctx context.Context, res domain.CrawlResult) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveSuccess(ctx, res)
		}
	}
}

func (o Observers) ObserveFailure(ctx context.Context, url string, err error) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveFailure(ctx, url, err)
		}
	}
}

// tally counts outcomes for a run summary.
type tally struct {
	crawled atomic.Int64
	failed  atomic.Int64
}

func (t *tally) ObserveSuccess(context.Context, domain.CrawlResult) { t.crawled.Add(1) }
func (t *tally) ObserveFailure(context.Context, string, error)      { t.failed.Add(1) }
