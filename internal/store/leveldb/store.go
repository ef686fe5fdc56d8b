// Package leveldb keeps an on-disk archive of compiled catalogs for
// deployments without Redis.
package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

const (
	catalogPrefix = "catalog/"
	latestKey     = "meta/latest"
)

// Store is a catalog archive backed by a LevelDB directory.
type Store struct {
	db *leveldb.DB
}

var _ store.CatalogStore = (*Store)(nil)

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func catalogKey(v domain.DatabaseVersion) []byte {
	return []byte(catalogPrefix + v.String())
}

// SaveCatalog writes the snapshot and the latest pointer in one batch.
func (s *Store) SaveCatalog(ctx context.Context, cat *domain.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := store.Encode(cat)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(catalogKey(cat.Version), data)
	batch.Put([]byte(latestKey), []byte(cat.Version.String()))

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to save catalog %s: %w", cat.Version, err)
	}
	return nil
}

// LatestCatalog returns the catalog the latest pointer names.
func (s *Store) LatestCatalog(ctx context.Context) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.db.Get([]byte(latestKey), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	v, err := domain.ParseDatabaseVersion(string(raw))
	if err != nil {
		return nil, fmt.Errorf("corrupt latest pointer: %w", err)
	}

	data, err := s.db.Get(catalogKey(v), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, v)
		}
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	return store.Decode(data)
}

// ListVersions walks the catalog keys. YYYYMMDD.SS sorts chronologically.
func (s *Store) ListVersions(ctx context.Context) ([]domain.DatabaseVersion, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(catalogPrefix)), nil)
	defer iter.Release()

	var versions []domain.DatabaseVersion
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := domain.ParseDatabaseVersion(string(iter.Key()[len(catalogPrefix):]))
		if err != nil {
			return nil, fmt.Errorf("corrupt catalog key %q: %w", iter.Key(), err)
		}
		versions = append(versions, v)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	return versions, nil
}

// DeleteVersion removes one snapshot, clearing latest if it pointed there.
func (s *Store) DeleteVersion(ctx context.Context, v domain.DatabaseVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Delete(catalogKey(v))

	latest, err := s.db.Get([]byte(latestKey), nil)
	switch {
	case err == nil && string(latest) == v.String():
		batch.Delete([]byte(latestKey))
	case err != nil && !errors.Is(err, leveldb.ErrNotFound):
		return fmt.Errorf("failed to get latest version: %w", err)
	}

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to delete catalog %s: %w", v, err)
	}
	return nil
}
