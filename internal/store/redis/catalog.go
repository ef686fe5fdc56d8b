package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

// DefaultCatalogTTL bounds how long a snapshot survives without pruning (30 days)
const DefaultCatalogTTL = 30 * 24 * time.Hour

// Store keeps compiled catalogs in Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.CatalogStore = (*Store)(nil)

// NewStore creates a new Redis store. A zero ttl keeps snapshots forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// SaveCatalog stores a catalog snapshot and points latest at it
func (s *Store) SaveCatalog(ctx context.Context, cat *domain.Catalog) error {
	data, err := store.Encode(cat)
	if err != nil {
		return err
	}

	version := cat.Version.String()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, CatalogKey(cat.Version), data, s.ttl)
	pipe.ZAdd(ctx, VersionsKey(), redis.Z{Score: float64(store.Score(cat.Version)), Member: version})
	pipe.Set(ctx, LatestKey(), version, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save catalog %s: %w", version, err)
	}

	return nil
}

// LatestCatalog retrieves the last saved catalog
func (s *Store) LatestCatalog(ctx context.Context) (*domain.Catalog, error) {
	raw, err := s.client.Get(ctx, LatestKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	v, err := domain.ParseDatabaseVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt latest pointer: %w", err)
	}

	return s.Catalog(ctx, v)
}

// Catalog retrieves one stored catalog by version
func (s *Store) Catalog(ctx context.Context, v domain.DatabaseVersion) (*domain.Catalog, error) {
	data, err := s.client.Get(ctx, CatalogKey(v)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, v)
		}
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	return store.Decode(data)
}

// ListVersions returns stored versions, oldest first
func (s *Store) ListVersions(ctx context.Context) ([]domain.DatabaseVersion, error) {
	entries, err := s.client.ZRangeWithScores(ctx, VersionsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	versions := make([]domain.DatabaseVersion, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, store.FromScore(int64(e.Score)))
	}

	return versions, nil
}

// DeleteVersion removes a catalog snapshot, clearing latest if it pointed there
func (s *Store) DeleteVersion(ctx context.Context, v domain.DatabaseVersion) error {
	version := v.String()

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		latest, err := tx.Get(ctx, LatestKey()).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, CatalogKey(v))
			pipe.ZRem(ctx, VersionsKey(), version)
			if latest == version {
				pipe.Del(ctx, LatestKey())
			}
			return nil
		})
		return err
	}, LatestKey())
	if err != nil {
		return fmt.Errorf("failed to delete catalog %s: %w", version, err)
	}

	return nil
}
