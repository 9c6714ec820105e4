// Package metrics counts crawl outcomes with Prometheus collectors and
// exports them as a node_exporter textfile.
package metrics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// Page statuses used as label values.
const (
	StatusCrawled = "crawled"
	StatusFailed  = "failed"
)

// Recorder owns a private registry so repeated runs in one process never
// collide with the default registerer.
type Recorder struct {
	registry    *prometheus.Registry
	pagesTotal  *prometheus.CounterVec
	runDuration prometheus.Gauge
	runURLs     prometheus.Gauge
}

// NewRecorder registers the crawl collectors on a fresh registry.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Pages processed partitioned by site and outcome.",
		}, []string{"site", "status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_run_duration_seconds",
			Help: "Wall time of the last crawl run.",
		}),
		runURLs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_run_urls",
			Help: "Number of URLs seeded into the last crawl run.",
		}),
	}
	for _, c := range []prometheus.Collector{r.pagesTotal, r.runDuration, r.runURLs} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register crawl collector: %w", err)
		}
	}
	return r, nil
}

// ObserveSuccess counts a crawled page.
func (r *Recorder) ObserveSuccess(_ context.Context, res domain.CrawlResult) {
	r.pagesTotal.WithLabelValues(SanitizeSite(res.URL), StatusCrawled).Inc()
}

// ObserveFailure counts a failed page.
func (r *Recorder) ObserveFailure(_ context.Context, rawURL string, _ error) {
	r.pagesTotal.WithLabelValues(SanitizeSite(rawURL), StatusFailed).Inc()
}

// ObserveRun records the size and wall time of a finished run.
func (r *Recorder) ObserveRun(urls int, elapsed time.Duration) {
	r.runURLs.Set(float64(urls))
	r.runDuration.Set(elapsed.Seconds())
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes every collected metric to path in the
// Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("metrics file path is empty")
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// SanitizeSite reduces a URL to its lowercase host name.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
