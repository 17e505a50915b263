// Package monitor orchestrates the full pipeline for each category:
// fetch, extract, normalize, map, diff against history, persist, and
// write outputs.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/bkaplan/brickwatch/internal/analysis"
	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/internal/history"
	"github.com/bkaplan/brickwatch/internal/monitoring"
	"github.com/bkaplan/brickwatch/internal/output"
	"github.com/bkaplan/brickwatch/internal/pipeline"
	"github.com/bkaplan/brickwatch/internal/scraper"
	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// Fetcher is the page source for a category run.
type Fetcher interface {
	FetchCategory(ctx context.Context, category, categoryURL string) (types.PageContent, error)
}

// Runner executes monitoring runs and keeps the latest report per
// category for the status server.
type Runner struct {
	cfg     *config.Config
	fetcher Fetcher
	store   history.Store
	outputs *output.Manager
	metrics *monitoring.Metrics
	logger  utils.Logger

	mu     sync.RWMutex
	latest map[string]*types.ChangeReport
}

// NewRunner wires a runner; metrics may be nil.
func NewRunner(cfg *config.Config, fetcher Fetcher, store history.Store, outputs *output.Manager, metrics *monitoring.Metrics, logger utils.Logger) *Runner {
	if logger == nil {
		logger = utils.NewComponentLogger("monitor")
	}
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		outputs: outputs,
		metrics: metrics,
		logger:  logger,
		latest:  make(map[string]*types.ChangeReport),
	}
}

// RunAll runs every configured category in order. A category failure
// is logged and counted but does not stop the remaining categories;
// the first error is returned after all categories have run.
func (r *Runner) RunAll(ctx context.Context) error {
	var firstErr error
	for _, category := range r.cfg.Categories {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := r.RunCategory(ctx, category); err != nil {
			r.logger.WithFields(map[string]interface{}{
				"category": category.Name,
				"error":    err.Error(),
			}).Error("category run failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RunCategory executes the pipeline for one category and returns its
// change report.
func (r *Runner) RunCategory(ctx context.Context, category config.CategoryConfig) (*types.ChangeReport, error) {
	start := time.Now()
	log := r.logger.WithField("category", category.Name)
	log.Info("starting category run")

	report, err := r.runCategory(ctx, category, log)

	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.RunsTotal.WithLabelValues(category.Name, status).Inc()
		r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.latest[category.Name] = report
	r.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"products":      report.Summary.TotalCurrentProducts,
		"price_changes": report.Summary.PriceChangesCount,
		"new":           report.Summary.NewProductsCount,
		"removed":       report.Summary.RemovedProductsCount,
		"duration":      time.Since(start).String(),
	}).Info("category run complete")
	return report, nil
}

func (r *Runner) runCategory(ctx context.Context, category config.CategoryConfig, log utils.Logger) (*types.ChangeReport, error) {
	content, err := r.fetcher.FetchCategory(ctx, category.Name, category.URL)
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.PagesFetched.Add(float64(content.PagesScraped))
	}

	extractor, err := scraper.New(scraper.Config{
		Selectors:       r.cfg.SelectorsFor(category),
		BaseURL:         r.cfg.BaseURL,
		Category:        category.Name,
		SourceURL:       category.URL,
		DefaultCurrency: r.cfg.DefaultCurrency,
		PriceFormat:     pipeline.ParsePriceFormat(r.cfg.PriceFormat),
		IDDigits:        r.cfg.IDPattern.Digits,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractor.Extract(content.HTMLContent)
	if err != nil {
		if r.metrics != nil {
			r.metrics.ExtractionErrors.Inc()
		}
		return nil, err
	}

	normalizer := pipeline.NewNormalizer(r.cfg.ExpectedFields, pipeline.ParsePriceFormat(r.cfg.PriceFormat))
	normalized := normalizer.Normalize(raw)
	_, mapped := pipeline.MapRecords(normalized, nil)
	snapshot := types.SnapshotFromMaps(category.Name, mapped)

	previous, err := r.store.LoadSnapshot(ctx, category.Name)
	if err != nil {
		return nil, err
	}

	report := analysis.Diff(snapshot, previous, r.cfg.PriceThresholdPercent)

	if err := r.store.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := r.store.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	if r.outputs != nil {
		if _, err := r.outputs.WriteSnapshot(snapshot); err != nil {
			return nil, err
		}
		if _, err := r.outputs.WriteReport(report); err != nil {
			return nil, err
		}
	}

	if r.metrics != nil {
		r.metrics.ProductsCurrent.WithLabelValues(category.Name).Set(float64(report.Summary.TotalCurrentProducts))
		r.metrics.PriceChanges.Add(float64(report.Summary.PriceChangesCount))
		r.metrics.NewProducts.Add(float64(report.Summary.NewProductsCount))
		r.metrics.RemovedProducts.Add(float64(report.Summary.RemovedProductsCount))
	}
	return report, nil
}

// Categories lists the configured category names.
func (r *Runner) Categories() []string {
	names := make([]string, 0, len(r.cfg.Categories))
	for _, category := range r.cfg.Categories {
		names = append(names, category.Name)
	}
	return names
}

// LatestReport returns the most recent report for a category.
func (r *Runner) LatestReport(category string) (*types.ChangeReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.latest[category]
	return report, ok
}
