package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
	"github.com/samvad-hq/pagemeta-crawler/internal/queue"
	"github.com/samvad-hq/pagemeta-crawler/internal/sink"
)

// RunSummary describes a finished run.
type RunSummary struct {
	RunID   string        `json:"run_id"`
	Total   int           `json:"total"`
	Crawled int64         `json:"crawled"`
	Failed  int64         `json:"failed"`
	Elapsed time.Duration `json:"elapsed"`
}

// Coordinator owns one crawl run: it prepares the output, seeds the queue,
// runs the pool and returns only after the queue has drained and every
// worker has exited.
type Coordinator struct {
	dest  sink.Destination
	deps  WorkerDeps
	runID string
	log   logger.Logger
	now   func() time.Time
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) CoordinatorOption {
	return func(c *Coordinator) { c.runID = id }
}

// WithClock overrides time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires a coordinator writing to dest. deps.Sink is ignored;
// workers always append to dest.
func NewCoordinator(dest sink.Destination, deps WorkerDeps, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		dest: dest,
		deps: deps,
		log:  logger.Ensure(deps.Log),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	c.deps.Sink = dest
	c.deps.Log = c.log
	return c
}

// RunID returns the id attached to this coordinator's run.
func (c *Coordinator) RunID() string { return c.runID }

// Run crawls urls with poolSize workers. Output rows appear in completion
// order, not in the order of urls. Per-URL failures never fail the run; only
// an invalid pool size or a destination that cannot be prepared does.
func (c *Coordinator) Run(ctx context.Context, urls []string, poolSize int) (RunSummary, error) {
	if c == nil || c.dest == nil {
		return RunSummary{}, fmt.Errorf("coordinator is not initialized")
	}
	if poolSize < 1 {
		return RunSummary{}, fmt.Errorf("pool size must be at least 1, got %d", poolSize)
	}

	start := c.now()
	summary := RunSummary{RunID: c.runID, Total: len(urls)}

	if err := c.dest.Prepare(); err != nil {
		return summary, fmt.Errorf("prepare output: %w", err)
	}

	q := queue.New()
	for _, u := range urls {
		if err := q.Enqueue(u); err != nil {
			return summary, fmt.Errorf("seed queue: %w", err)
		}
	}
	if len(urls) == 0 {
		c.log.WarnObj("no urls to crawl", "run_id", c.runID)
		summary.Elapsed = c.now().Sub(start)
		return summary, nil
	}

	counts := &tally{}
	deps := c.deps
	deps.Observer = Observers{counts, c.deps.Observer}

	pool, err := NewPool(poolSize, q, deps)
	if err != nil {
		return summary, err
	}

	c.log.InfoObj("crawl run starting", "run_meta", map[string]any{
		"run_id":     c.runID,
		"urls_count": len(urls),
		"pool_size":  poolSize,
		"timeout_ms": c.deps.FetchTimeout.Milliseconds(),
	})

	pool.Start(ctx)
	q.AwaitDrained()
	pool.Wait()

	summary.Crawled = counts.crawled.Load()
	summary.Failed = counts.failed.Load()
	summary.Elapsed = c.now().Sub(start)

	c.log.InfoObj("crawl run completed", "run_meta", map[string]any{
		"run_id":     c.runID,
		"urls_count": summary.Total,
		"crawled":    summary.Crawled,
		"failed":     summary.Failed,
		"elapsed_ms": summary.Elapsed.Milliseconds(),
	})
	return summary, nil
}
