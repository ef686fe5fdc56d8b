package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/atlas/internal/compiler"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/metrics"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

// StoreSyncer restores the last stored catalog into the index on startup
type StoreSyncer struct {
	stores   []NamedStore
	index    *index.CatalogIndex
	compiler *compiler.Compiler
	logger   logger.Logger
}

// NewStoreSyncer creates a new store syncer
func NewStoreSyncer(
	stores []NamedStore,
	idx *index.CatalogIndex,
	c *compiler.Compiler,
	log logger.Logger,
) *StoreSyncer {
	return &StoreSyncer{
		stores:   stores,
		index:    idx,
		compiler: c,
		logger:   log,
	}
}

// Sync seeds version numbering from every store, then loads the latest catalog
// of the first store that has one. Store errors are logged, not returned.
func (ss *StoreSyncer) Sync(ctx context.Context) error {
	for _, s := range ss.stores {
		versions, err := s.Store.ListVersions(ctx)
		if err != nil {
			ss.logger.Warn("failed to list stored versions",
				logger.String("store", s.Name),
				logger.Error(err))
			continue
		}
		if n := len(versions); n > 0 {
			ss.compiler.SetPrevious(versions[n-1])
		}
	}

	for _, s := range ss.stores {
		cat, err := s.Store.LatestCatalog(ctx)
		if errors.Is(err, store.ErrNotFound) {
			ss.logger.Info("no catalog found in store", logger.String("store", s.Name))
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ss.logger.Warn("failed to restore catalog",
				logger.String("store", s.Name),
				logger.Error(err))
			continue
		}

		ss.compiler.SetPrevious(cat.Version)
		ss.index.Replace(cat)
		metrics.SetCatalog(cat)

		ss.logger.Info("restored catalog from store",
			logger.String("store", s.Name),
			logger.Stringer("version", cat.Version),
			logger.Int("services", len(cat.Services)))
		return nil
	}

	return nil
}
