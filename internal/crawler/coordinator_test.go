package crawler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
	"github.com/samvad-hq/pagemeta-crawler/internal/sink"
	"github.com/samvad-hq/pagemeta-crawler/pkg/httpclient"
)

func TestCoordinatorWritesOnlySuccessfulRows(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["http://a.test/x"] = "<html><head><title>X</title></head></html>"
	fetcher.errs["http://a.test/y"] = &FetchError{URL: "http://a.test/y", Err: errors.New("timed out after 5s")}
	dest := &memorySink{}

	c := NewCoordinator(dest, WorkerDeps{Fetcher: fetcher, FetchTimeout: 5 * time.Second}, WithRunID("run-1"))
	summary, err := c.Run(context.Background(), []string{"http://a.test/x", "http://a.test/y"}, 2)
	require.NoError(t, err)

	assert.Equal(t, []domain.CrawlResult{{URL: "http://a.test/x", Title: "X", Description: domain.NoDescription}}, dest.snapshot())
	assert.Equal(t, RunSummary{RunID: "run-1", Total: 2, Crawled: 1, Failed: 1, Elapsed: summary.Elapsed}, summary)
	assert.Equal(t, 1, dest.prepared)
}

func TestCoordinatorWaitsForInFlightFetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["http://a.test/slow"] = "<title>slow</title>"
	fetcher.bodies["http://a.test/fast"] = "<title>fast</title>"
	gate := make(chan struct{})
	fetcher.block["http://a.test/slow"] = gate
	fetcher.started = make(chan string, 2)
	dest := &memorySink{}

	c := NewCoordinator(dest, WorkerDeps{Fetcher: fetcher})
	done := make(chan RunSummary)
	go func() {
		summary, err := c.Run(context.Background(), []string{"http://a.test/slow", "http://a.test/fast"}, 2)
		assert.NoError(t, err)
		done <- summary
	}()

	<-fetcher.started
	<-fetcher.started
	select {
	case <-done:
		t.Fatal("run returned while a fetch was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate)
	select {
	case summary := <-done:
		assert.EqualValues(t, 2, summary.Crawled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after the fetch completed")
	}
	assert.Len(t, dest.snapshot(), 2)
}

func TestCoordinatorEmptyURLList(t *testing.T) {
	dest := &memorySink{}
	c := NewCoordinator(dest, WorkerDeps{Fetcher: newFakeFetcher()})

	summary, err := c.Run(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Equal(t, 1, dest.prepared, "output is still created for an empty run")
	assert.Empty(t, dest.snapshot())
}

func TestCoordinatorRejectsInvalidPoolSize(t *testing.T) {
	dest := &memorySink{}
	c := NewCoordinator(dest, WorkerDeps{Fetcher: newFakeFetcher()})

	_, err := c.Run(context.Background(), []string{"http://a.test/x"}, 0)
	require.Error(t, err)
	assert.Zero(t, dest.prepared)
}

func TestCoordinatorPrepareFailureAbortsRun(t *testing.T) {
	fetcher := newFakeFetcher()
	dest := &memorySink{prepErr: errors.New("read-only file system")}
	c := NewCoordinator(dest, WorkerDeps{Fetcher: fetcher})

	_, err := c.Run(context.Background(), []string{"http://a.test/x"}, 1)
	require.ErrorContains(t, err, "prepare output")
	assert.Zero(t, fetcher.callCount("http://a.test/x"))
}

func TestCoordinatorForwardsOutcomesToObserver(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.bodies["http://a.test/x"] = "<title>X</title>"
	obs := &recordingObserver{}

	c := NewCoordinator(&memorySink{}, WorkerDeps{Fetcher: fetcher, Observer: obs})
	_, err := c.Run(context.Background(), []string{"http://a.test/x", "http://a.test/missing"}, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test/x"}, obs.successes)
	assert.Contains(t, obs.failures, "http://a.test/missing")
	assert.NotEmpty(t, c.RunID())
}

func TestCoordinatorCrawlsLiveServerIntoCSV(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Home</title><meta name="description" content="Front page, with commas"></head></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head></head><body>no metadata</body></html>`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "results.csv")
	csvSink := sink.NewCSVSink(out)
	fetcher := NewHTTPFetcher(httpclient.NewRestyClient(0), FetcherOptions{})

	urls := []string{srv.URL + "/", srv.URL + "/about", srv.URL + "/slow"}
	c := NewCoordinator(csvSink, WorkerDeps{Fetcher: fetcher, FetchTimeout: 200 * time.Millisecond})
	summary, err := c.Run(context.Background(), urls, 3)
	require.NoError(t, err)
	require.NoError(t, csvSink.Close())

	assert.EqualValues(t, 2, summary.Crawled)
	assert.EqualValues(t, 1, summary.Failed)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	records, err := r.ReadAll()
	require.NoError(t, err)

	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, fmt.Sprintf("%s|%s|%s", rec[0], rec[1], rec[2]))
	}
	sort.Strings(got)
	want := []string{
		srv.URL + "/|Home|Front page, with commas",
		srv.URL + "/about|No title|No description",
	}
	sort.Strings(want)
	assert.Equal(t, want, got)
}
