package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/metrics"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

// DefaultKeepVersions is how many catalog versions each store retains
const DefaultKeepVersions = 10

// SnapshotPruner deletes old catalog versions from the stores
type SnapshotPruner struct {
	stores   []NamedStore
	index    *index.CatalogIndex
	logger   logger.Logger
	interval time.Duration
	keep     int
	stopCh   chan struct{}
}

// NewSnapshotPruner creates a new snapshot pruner
func NewSnapshotPruner(
	stores []NamedStore,
	idx *index.CatalogIndex,
	log logger.Logger,
	interval time.Duration,
	keep int,
) *SnapshotPruner {
	if keep <= 0 {
		keep = DefaultKeepVersions
	}

	return &SnapshotPruner{
		stores:   stores,
		index:    idx,
		logger:   log,
		interval: interval,
		keep:     keep,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic pruning process
func (sp *SnapshotPruner) Start(ctx context.Context) error {
	sp.Prune(ctx)

	ticker := time.NewTicker(sp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sp.Prune(ctx)
			case <-sp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the pruner
func (sp *SnapshotPruner) Stop() {
	close(sp.stopCh)
}

// Prune keeps the newest versions in every store and returns how many were
// deleted. The version currently served is never deleted.
func (sp *SnapshotPruner) Prune(ctx context.Context) int {
	served := ""
	if cat := sp.index.Current(); cat != nil {
		served = cat.Version.String()
	}

	total := 0
	for _, s := range sp.stores {
		versions, err := s.Store.ListVersions(ctx)
		if err != nil {
			metrics.StoreErrorsTotal.WithLabelValues(s.Name, "list").Inc()
			sp.logger.Warn("failed to list catalog versions",
				logger.String("store", s.Name),
				logger.Error(err))
			continue
		}

		for _, v := range store.Expired(versions, sp.keep) {
			if v.String() == served {
				continue
			}
			if err := s.Store.DeleteVersion(ctx, v); err != nil {
				metrics.StoreErrorsTotal.WithLabelValues(s.Name, "delete").Inc()
				sp.logger.Warn("failed to delete catalog version",
					logger.String("store", s.Name),
					logger.Stringer("version", v),
					logger.Error(err))
				continue
			}
			total++
		}
	}

	if total > 0 {
		sp.logger.Info("pruned catalog versions",
			logger.Int("deleted", total),
			logger.Int("keep", sp.keep))
	} else {
		sp.logger.Debug("no catalog versions to prune")
	}

	return total
}
