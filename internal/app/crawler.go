package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/samvad-hq/pagemeta-crawler/internal/config"
	"github.com/samvad-hq/pagemeta-crawler/internal/crawler"
	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
	"github.com/samvad-hq/pagemeta-crawler/internal/metrics"
	"github.com/samvad-hq/pagemeta-crawler/internal/sink"
	"github.com/samvad-hq/pagemeta-crawler/internal/storage"
	"github.com/samvad-hq/pagemeta-crawler/internal/targets"
	"github.com/samvad-hq/pagemeta-crawler/pkg/httpclient"
	"github.com/samvad-hq/pagemeta-crawler/pkg/publishers"
)

// Crawler is the one-shot crawl runtime. It expands the targets file into a
// URL list, runs a single coordinated crawl into the CSV output and releases
// every resource it opened.
type Crawler struct {
	cfg     *config.Config
	urls    []string
	output  *sink.CSVSink
	fanout  *publishers.Fanout
	store   storage.Store
	metrics *metrics.Recorder
	coord   *crawler.Coordinator
	log     logger.Logger
}

// NewCrawler builds a crawler runtime from config files.
func NewCrawler(ctx context.Context, cfg *config.Config, log logger.Logger) (*Crawler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tg, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	urls := tg.URLs()
	log.InfoObj("targets loaded", "targets_meta", map[string]any{
		"file":         cfg.TargetsFile,
		"base_domains": len(tg.BaseDomains),
		"paths":        len(tg.Paths),
		"urls_count":   len(urls),
	})

	runID := uuid.NewString()

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"outcome_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	recorder, err := metrics.NewRecorder()
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	output := sink.NewCSVSink(cfg.OutputFile)
	var dest sink.Destination = output
	if fanout.Size() > 0 {
		dest = sink.NewPublishingSink(output, fanout, runID, log)
	}

	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	fetcher := crawler.NewHTTPFetcher(client, crawler.FetcherOptions{
		MaxBodyBytes:     cfg.MaxBodyBytes,
		FailOnHTTPStatus: cfg.FailOnHTTPStatus,
		Headers:          tg.RequestHeaders(),
	})

	coord := crawler.NewCoordinator(dest, crawler.WorkerDeps{
		Fetcher:      fetcher,
		Extractor:    crawler.NewHTMLExtractor(),
		Observer:     crawler.Observers{recorder, storage.NewLedger(store, runID, log)},
		FetchTimeout: cfg.FetchTimeout,
		Log:          log,
	}, crawler.WithRunID(runID))

	return &Crawler{
		cfg:     cfg,
		urls:    urls,
		output:  output,
		fanout:  fanout,
		store:   store,
		metrics: recorder,
		coord:   coord,
		log:     log,
	}, nil
}

// buildFanout returns an empty fanout when no publishers file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// URLs returns the expanded crawl list.
func (c *Crawler) URLs() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

// Run performs one crawl and releases the runtime's resources. It returns
// only after every URL has been processed and every worker has exited.
func (c *Crawler) Run(ctx context.Context) (crawler.RunSummary, error) {
	if c == nil || c.coord == nil {
		return crawler.RunSummary{}, fmt.Errorf("crawler is not initialized")
	}

	summary, runErr := c.coord.Run(ctx, c.urls, c.cfg.PoolSize)
	c.metrics.ObserveRun(len(c.urls), summary.Elapsed)

	closeErr := c.close()
	if runErr != nil {
		return summary, errors.Join(runErr, closeErr)
	}
	if closeErr != nil {
		return summary, closeErr
	}

	c.log.InfoObj("Crawling finished.", "run_summary", map[string]any{
		"run_id":     summary.RunID,
		"output":     c.output.Path(),
		"rows":       c.output.Rows(),
		"crawled":    summary.Crawled,
		"failed":     summary.Failed,
		"elapsed_ms": summary.Elapsed.Milliseconds(),
	})
	return summary, nil
}

// close flushes the output and releases publishers, storage and metrics.
// Failures other than the output file are logged only.
func (c *Crawler) close() error {
	var errs []error
	if err := c.output.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}

	if c.cfg.MetricsFile != "" {
		if err := c.metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
			c.log.ErrorObj("metrics export failed", "error", err.Error())
		}
	}
	if err := c.fanout.Close(); err != nil {
		c.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err.Error())
	}
	return errors.Join(errs...)
}
