package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/pagemeta-crawler/internal/config"
	"github.com/samvad-hq/pagemeta-crawler/internal/storage"
	"github.com/samvad-hq/pagemeta-crawler/pkg/publishers"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Home</title><meta name="description" content="Welcome"></head></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>About</title></head></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, dir string, domains []string) *config.Config {
	t.Helper()
	targetsFile := filepath.Join(dir, "config.json")
	raw, err := json.Marshal(map[string][]string{
		"base_domains": domains,
		"paths":        {"/", "/about"},
	})
	if err != nil {
		t.Fatalf("marshal targets: %v", err)
	}
	if err := os.WriteFile(targetsFile, raw, 0o644); err != nil {
		t.Fatalf("write targets: %v", err)
	}

	return &config.Config{
		AppName:                "pagemeta-crawler",
		TargetsFile:            targetsFile,
		OutputFile:             filepath.Join(dir, "out", "results.csv"),
		PoolSize:               3,
		FetchTimeout:           2 * time.Second,
		MaxBodyBytes:           1 << 20,
		UserAgent:              "pagemeta-crawler-test",
		StorageType:            "none",
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func readRows(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, strings.Join(rec, "|"))
	}
	sort.Strings(out)
	return out
}

func TestCrawlerRunWritesCSV(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	cfg := testConfig(t, dir, []string{srv.URL, "http://127.0.0.1:1"})
	cfg.MetricsFile = filepath.Join(dir, "crawler.prom")

	c, err := NewCrawler(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewCrawler: %v", err)
	}
	if got := len(c.URLs()); got != 4 {
		t.Fatalf("expected 4 urls, got %d", got)
	}

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Crawled != 2 || summary.Failed != 2 || summary.Total != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	want := []string{
		srv.URL + "/about|About|No description",
		srv.URL + "/|Home|Welcome",
	}
	sort.Strings(want)
	got := readRows(t, cfg.OutputFile)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected rows:\n got %v\nwant %v", got, want)
	}

	prom, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `crawler_pages_total{site="127.0.0.1",status="failed"} 2`) {
		t.Fatalf("metrics file missing failure counter:\n%s", prom)
	}
}

func TestCrawlerRecordsLedgerAndPublishes(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	cfg := testConfig(t, dir, []string{srv.URL})
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(dir, "data", "outcomes.db")

	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	cfg.PublishersFile = filepath.Join(dir, "publishers.yaml")
	pubYAML := fmt.Sprintf("publishers:\n  - id: hook\n    type: http\n    http:\n      url: %s\n", hook.URL)
	if err := os.WriteFile(cfg.PublishersFile, []byte(pubYAML), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}

	c, err := NewCrawler(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewCrawler: %v", err)
	}
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	if len(events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events))
	}
	for _, evt := range events {
		if evt.RunID != summary.RunID {
			t.Fatalf("event run id %q does not match summary %q", evt.RunID, summary.RunID)
		}
	}
	mu.Unlock()

	store, err := storage.NewStore("bbolt", cfg.BBoltPath, storage.Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	o, found, err := store.Outcome(srv.URL + "/about")
	if err != nil || !found {
		t.Fatalf("expected ledger entry, found=%v err=%v", found, err)
	}
	if o.Status != storage.StatusCrawled || o.Title != "About" || o.RunID != summary.RunID {
		t.Fatalf("unexpected ledger entry %+v", o)
	}
}

func TestNewCrawlerFailsOnMissingTargets(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), []string{"https://a.test"})
	cfg.TargetsFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := NewCrawler(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing targets file")
	}
	if _, err := NewCrawler(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestCrawlerRunFailsWhenOutputUnwritable(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, []string{"https://a.test"})
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.OutputFile = filepath.Join(blocker, "results.csv")

	c, err := NewCrawler(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewCrawler: %v", err)
	}
	if _, err := c.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "prepare output") {
		t.Fatalf("expected prepare error, got %v", err)
	}
}
