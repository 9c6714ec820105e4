package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

func TestBoltStoreRecordsAndExpiresOutcomes(t *testing.T) {
	opts := Options{
		OutcomeTTL:      time.Hour,
		CleanupInterval: time.Minute,
	}

	store, err := openBolt(filepath.Join(t.TempDir(), "ledger", "outcomes.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return clock }

	if _, found, err := store.Outcome("https://a.test/"); err != nil || found {
		t.Fatalf("expected missing outcome, found=%v err=%v", found, err)
	}

	if err := store.RecordOutcome(Outcome{URL: "https://a.test/", RunID: "r1", Status: StatusCrawled, Title: "A"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, found, err := store.Outcome("https://a.test/")
	if err != nil || !found {
		t.Fatalf("expected outcome, found=%v err=%v", found, err)
	}
	if got.Title != "A" || got.RunID != "r1" || got.Status != StatusCrawled {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if !got.ExpiresAt.Equal(clock.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", got.ExpiresAt)
	}

	// A later run overwrites the previous outcome.
	if err := store.RecordOutcome(Outcome{URL: "https://a.test/", RunID: "r2", Status: StatusFailed, Error: "timed out"}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	got, _, _ = store.Outcome("https://a.test/")
	if got.RunID != "r2" || got.Status != StatusFailed {
		t.Fatalf("expected overwrite, got %+v", got)
	}

	clock = clock.Add(2 * time.Hour)
	if _, found, err := store.Outcome("https://a.test/"); err != nil || found {
		t.Fatalf("expected expired outcome to be dropped, found=%v err=%v", found, err)
	}
}

func TestBoltStoreCleanupSweepsExpired(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "outcomes.db"), Options{OutcomeTTL: time.Minute, CleanupInterval: time.Minute})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	clock := time.Now()
	store.now = func() time.Time { return clock }
	for _, u := range []string{"https://a.test/1", "https://a.test/2"} {
		if err := store.RecordOutcome(Outcome{URL: u, Status: StatusCrawled}); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}

	clock = clock.Add(5 * time.Minute)
	if err := store.maybeCleanupExpired(clock); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := store.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte(outcomeBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected bucket to be empty after cleanup, got %d keys", count)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.RecordOutcome(Outcome{URL: "x"}); err != nil {
		t.Fatalf("noop store RecordOutcome: %v", err)
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

type failingStore struct{ noopStore }

func (failingStore) RecordOutcome(Outcome) error { return errors.New("disk full") }

func TestLedgerRecordsOutcomes(t *testing.T) {
	store, err := NewStore("bbolt", filepath.Join(t.TempDir(), "outcomes.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	ledger := NewLedger(store, "run-7", nil)
	ctx := context.Background()
	ledger.ObserveSuccess(ctx, domain.NewCrawlResult("https://a.test/x", "X", ""))
	ledger.ObserveFailure(ctx, "https://a.test/y", errors.New("connection refused"))

	x, found, err := store.Outcome("https://a.test/x")
	if err != nil || !found {
		t.Fatalf("expected success outcome, found=%v err=%v", found, err)
	}
	if x.Status != StatusCrawled || x.Description != domain.NoDescription || x.RunID != "run-7" {
		t.Fatalf("unexpected success outcome %+v", x)
	}

	y, found, err := store.Outcome("https://a.test/y")
	if err != nil || !found {
		t.Fatalf("expected failure outcome, found=%v err=%v", found, err)
	}
	if y.Status != StatusFailed || y.Error != "connection refused" {
		t.Fatalf("unexpected failure outcome %+v", y)
	}

	// Write failures are swallowed.
	NewLedger(failingStore{}, "run-8", nil).ObserveFailure(ctx, "https://a.test/z", nil)
}
