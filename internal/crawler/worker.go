package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
)

// WorkerDeps are the collaborators shared by every worker in a pool.
type WorkerDeps struct {
	Fetcher      Fetcher
	Extractor    Extractor
	Sink         ResultSink
	Observer     Observer
	FetchTimeout time.Duration
	Log          logger.Logger
}

// Worker pulls URLs from a queue until it is empty. Each URL goes through
// fetch, extract and record, and is acknowledged whatever the outcome.
type Worker struct {
	id    int
	queue WorkQueue
	deps  WorkerDeps
	log   logger.Logger
}

// NewWorker builds worker id over queue.
func NewWorker(id int, queue WorkQueue, deps WorkerDeps) *Worker {
	if deps.Extractor == nil {
		deps.Extractor = NewHTMLExtractor()
	}
	if deps.Observer == nil {
		deps.Observer = Observers(nil)
	}
	return &Worker{
		id:    id,
		queue: queue,
		deps:  deps,
		log:   logger.Ensure(deps.Log),
	}
}

// Run loops until TryPull reports no remaining work.
func (w *Worker) Run(ctx context.Context) {
	processed := 0
	for {
		url, ok := w.queue.TryPull()
		if !ok {
			w.log.DebugObj("worker exiting", "worker_state", map[string]any{
				"worker_id": w.id,
				"processed": processed,
			})
			return
		}
		w.handle(ctx, url)
		processed++
	}
}

// handle owns the item boundary: nothing raised while processing url escapes
// it, and the queue is acknowledged exactly once.
func (w *Worker) handle(ctx context.Context, url string) {
	defer w.acknowledge(url)

	res, err := w.process(ctx, url)
	if err != nil {
		w.log.ErrorObj(fmt.Sprintf("Error crawling %s: %v", url, err), "crawl_error", map[string]any{
			"worker_id": w.id,
			"url":       url,
			"kind":      errorKind(err),
			"error":     err.Error(),
		})
		w.deps.Observer.ObserveFailure(ctx, url, err)
		return
	}

	w.log.InfoObj(fmt.Sprintf("Crawled: %s", url), "crawl_result", map[string]any{
		"worker_id": w.id,
		"url":       res.URL,
		"title":     res.Title,
	})
	w.deps.Observer.ObserveSuccess(ctx, res)
}

func (w *Worker) process(ctx context.Context, url string) (res domain.CrawlResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = domain.CrawlResult{}, panicError{value: r}
		}
	}()

	body, err := w.deps.Fetcher.Fetch(ctx, url, w.deps.FetchTimeout)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: url, Err: err}
		}
		return domain.CrawlResult{}, err
	}

	ext, err := w.deps.Extractor.Extract(body)
	if err != nil {
		var ee *ExtractError
		if !errors.As(err, &ee) {
			err = &ExtractError{URL: url, Err: err}
		}
		return domain.CrawlResult{}, err
	}

	res = domain.NewCrawlResult(url, ext.Title, ext.Description)
	if err := w.deps.Sink.Append(ctx, res); err != nil {
		return domain.CrawlResult{}, fmt.Errorf("append result: %w", err)
	}
	return res, nil
}

func (w *Worker) acknowledge(url string) {
	if err := w.queue.Acknowledge(); err != nil {
		w.log.ErrorObj("queue acknowledge failed", "queue_error", map[string]any{
			"worker_id": w.id,
			"url":       url,
			"error":     err.Error(),
		})
	}
}

func errorKind(err error) string {
	var (
		fe *FetchError
		ee *ExtractError
		pe panicError
	)
	switch {
	case errors.As(err, &fe):
		return "fetch"
	case errors.As(err, &ee):
		return "extract"
	case errors.As(err, &pe):
		return "panic"
	default:
		return "sink"
	}
}
