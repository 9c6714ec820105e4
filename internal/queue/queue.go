// Package queue provides the in-memory work queue shared by crawl workers.
package queue

import (
	"errors"
	"sync"
)

var (
	// ErrDrained is returned by Enqueue once the queue has drained.
	ErrDrained = errors.New("queue already drained")
	// ErrOverAcknowledged is returned when Acknowledge is called more times
	// than items were enqueued.
	ErrOverAcknowledged = errors.New("acknowledge without outstanding item")
)

// Queue hands out each enqueued URL to exactly one caller and tracks how many
// items have not yet been acknowledged. A single mutex guards both the item
// store and the outstanding count.
//
// Items are fully seeded before consumers start, so TryPull never waits for
// new work: an empty result means there is nothing left to pull.
type Queue struct {
	mu          sync.Mutex
	items       []string
	head        int
	outstanding int
	drained     bool
	done        chan struct{}
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{done: make(chan struct{})}
}

// Enqueue adds one item and increments the outstanding count.
func (q *Queue) Enqueue(item string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.drained {
		return ErrDrained
	}
	q.items = append(q.items, item)
	q.outstanding++
	return nil
}

// TryPull removes and returns the next item. It returns false when no items
// remain to be pulled.
func (q *Queue) TryPull() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return "", false
	}
	item := q.items[q.head]
	q.items[q.head] = ""
	q.head++
	return item, true
}

// Acknowledge marks one pulled item as processed. When the outstanding count
// reaches zero the queue is drained and AwaitDrained callers are released.
func (q *Queue) Acknowledge() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.outstanding == 0 {
		return ErrOverAcknowledged
	}
	q.outstanding--
	if q.outstanding == 0 {
		q.markDrainedLocked()
	}
	return nil
}

// AwaitDrained blocks until every enqueued item has been acknowledged. An
// empty queue counts as drained.
func (q *Queue) AwaitDrained() {
	q.mu.Lock()
	if q.outstanding == 0 {
		q.markDrainedLocked()
	}
	q.mu.Unlock()
	<-q.done
}

// Drained returns a channel closed once the outstanding count hits zero after
// at least one item was enqueued, or after AwaitDrained observed an empty queue.
func (q *Queue) Drained() <-chan struct{} {
	return q.done
}

// Outstanding reports the number of enqueued items not yet acknowledged.
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// Pending reports the number of items not yet pulled.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *Queue) markDrainedLocked() {
	if q.drained {
		return
	}
	q.drained = true
	q.items = nil
	q.head = 0
	close(q.done)
}
