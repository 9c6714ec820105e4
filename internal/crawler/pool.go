package crawler

import (
	"context"
	"fmt"
	"sync"
)

// Pool runs a fixed number of workers against one queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool builds size workers sharing queue and deps.
func NewPool(size int, queue WorkQueue, deps WorkerDeps) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	if queue == nil {
		return nil, fmt.Errorf("pool requires a queue")
	}
	if deps.Fetcher == nil || deps.Sink == nil {
		return nil, fmt.Errorf("pool requires a fetcher and a sink")
	}

	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = NewWorker(i+1, queue, deps)
	}
	return &Pool{workers: workers}, nil
}

// Start launches every worker in its own goroutine. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		p.wg.Add(len(p.workers))
		for _, w := range p.workers {
			go func(wk *Worker) {
				defer p.wg.Done()
				wk.Run(ctx)
			}(w)
		}
	})
}

// Wait blocks until every started worker has returned from its loop.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}
