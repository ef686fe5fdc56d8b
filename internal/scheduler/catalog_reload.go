package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/compiler"
	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/emit"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/metrics"
	"github.com/MrSnakeDoc/atlas/internal/storage"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

// Source yields the raw service records to compile.
type Source interface {
	Load() ([]domain.SourceRecord, error)
}

// NamedStore is a catalog store with the name used in logs and metrics.
type NamedStore struct {
	Name  string
	Store store.CatalogStore
}

// Report describes the outcome of the last compilation attempt.
type Report struct {
	At       time.Time           `json:"at"`
	Success  bool                `json:"success"`
	Version  string              `json:"version,omitempty"`
	Services int                 `json:"services,omitempty"`
	Failures []string            `json:"failures,omitempty"`
	Warnings []domain.Diagnostic `json:"warnings,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// CatalogReloaderConfig wires a CatalogReloader.
type CatalogReloaderConfig struct {
	Source   Source
	Compiler *compiler.Compiler
	Index    *index.CatalogIndex
	Stores   []NamedStore
	Logger   logger.Logger
	Interval time.Duration

	// Artifacts, when set, receives every successful compilation under
	// ArtifactPrefix.
	Artifacts      storage.Storage
	ArtifactPrefix string

	ManualTrigger chan struct{}
}

// CatalogReloader recompiles the catalog periodically and on demand. A failed
// compilation never replaces the catalog being served.
type CatalogReloader struct {
	source        Source
	compiler      *compiler.Compiler
	index         *index.CatalogIndex
	stores        []NamedStore
	artifacts     storage.Storage
	prefix        string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	mu     sync.RWMutex
	report *Report
}

// NewCatalogReloader creates a new catalog reloader
func NewCatalogReloader(cfg CatalogReloaderConfig) *CatalogReloader {
	return &CatalogReloader{
		source:        cfg.Source,
		compiler:      cfg.Compiler,
		index:         cfg.Index,
		stores:        cfg.Stores,
		artifacts:     cfg.Artifacts,
		prefix:        cfg.ArtifactPrefix,
		logger:        cfg.Logger,
		interval:      cfg.Interval,
		stopCh:        make(chan struct{}),
		manualTrigger: cfg.ManualTrigger,
	}
}

// Start compiles once, then keeps recompiling on the ticker and on manual
// triggers. The first failure is fatal only when there is nothing to serve.
func (cr *CatalogReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		if !cr.index.Loaded() {
			return fmt.Errorf("initial reload failed: %w", err)
		}
		cr.logger.Warn("initial reload failed, serving restored catalog",
			logger.Error(err))
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = cr.Reload(ctx)
			case <-cr.manualTrigger:
				cr.logger.Info("manual reload triggered")
				_ = cr.Reload(ctx)
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CatalogReloader) Stop() {
	close(cr.stopCh)
}

// LastReport returns the outcome of the last attempt, or nil before the first.
func (cr *CatalogReloader) LastReport() *Report {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.report
}

// Reload loads, compiles and, on success, swaps in and persists the catalog.
// Failures are logged, reported and returned.
func (cr *CatalogReloader) Reload(ctx context.Context) error {
	start := time.Now()
	cr.logger.Info("reloading service catalog")

	cat, err := cr.compile(ctx)
	if err != nil {
		cr.fail(start, err)
		return err
	}

	cr.index.Replace(cat)
	metrics.SetCatalog(cat)
	metrics.RecordFailures.Set(0)
	metrics.ObserveCompilation(metrics.ResultSuccess, time.Since(start))

	cr.setReport(&Report{
		At:       start,
		Success:  true,
		Version:  cat.Version.String(),
		Services: len(cat.Services),
		Warnings: cat.Warnings,
	})

	cr.persist(ctx, cat)
	cr.publish(ctx, cat)

	return nil
}

func (cr *CatalogReloader) compile(ctx context.Context) (*domain.Catalog, error) {
	records, err := cr.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	return cr.compiler.Compile(ctx, records)
}

func (cr *CatalogReloader) fail(start time.Time, err error) {
	report := &Report{At: start, Error: err.Error()}
	result := metrics.ResultError

	var ce *domain.CompileError
	switch {
	case errors.As(err, &ce):
		result = metrics.ResultRejected
		report.Failures = ce.Lines()
		metrics.RecordFailures.Set(float64(len(ce.Failures)))
		for _, f := range ce.Failures {
			cr.logger.Error("service record rejected",
				logger.String("id", f.RecordID),
				logger.String("source", f.Source),
				logger.Error(f.Err))
		}
		cr.logger.Error("catalog compilation rejected, keeping previous catalog",
			logger.Int("failures", len(ce.Failures)))
	case errors.Is(err, domain.ErrInvariant):
		result = metrics.ResultInvariant
		cr.logger.Error("catalog compiler invariant violated, keeping previous catalog",
			logger.Error(err))
	default:
		cr.logger.Error("failed to reload catalog, keeping previous catalog",
			logger.Error(err))
	}

	metrics.ObserveCompilation(result, time.Since(start))
	cr.setReport(report)
}

// persist saves to every store (best effort, the index is the primary source).
func (cr *CatalogReloader) persist(ctx context.Context, cat *domain.Catalog) {
	for _, s := range cr.stores {
		if err := s.Store.SaveCatalog(ctx, cat); err != nil {
			metrics.StoreErrorsTotal.WithLabelValues(s.Name, "save").Inc()
			cr.logger.Warn("failed to save catalog",
				logger.String("store", s.Name),
				logger.Error(err))
			continue
		}
		cr.logger.Debug("catalog saved",
			logger.String("store", s.Name),
			logger.Stringer("version", cat.Version))
	}
}

func (cr *CatalogReloader) publish(ctx context.Context, cat *domain.Catalog) {
	if cr.artifacts == nil {
		return
	}

	arts, err := emit.Artifacts(cat)
	if err == nil {
		err = emit.Publish(ctx, cr.artifacts, cr.prefix, cat.Version, arts)
	}
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("artifacts", "publish").Inc()
		cr.logger.Warn("failed to publish artifacts", logger.Error(err))
		return
	}

	cr.logger.Info("artifacts published",
		logger.Stringer("version", cat.Version),
		logger.Int("files", len(arts)))
}

func (cr *CatalogReloader) setReport(r *Report) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.report = r
}
