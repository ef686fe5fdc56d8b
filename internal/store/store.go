// Package store persists compiled catalogs so a restart can serve the last
// good catalog before the first recompilation finishes.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// ErrNotFound is returned when no catalog matches the request.
var ErrNotFound = errors.New("catalog not found")

// CatalogStore is implemented by every catalog backend.
type CatalogStore interface {
	// SaveCatalog stores cat and makes it the latest version.
	SaveCatalog(ctx context.Context, cat *domain.Catalog) error
	// LatestCatalog returns the most recently saved catalog.
	LatestCatalog(ctx context.Context) (*domain.Catalog, error)
	// ListVersions returns stored versions, oldest first.
	ListVersions(ctx context.Context) ([]domain.DatabaseVersion, error)
	// DeleteVersion removes one stored version. Deleting a missing version is not an error.
	DeleteVersion(ctx context.Context, v domain.DatabaseVersion) error
}

// Score orders versions as a single sortable integer (YYYYMMDDSS).
func Score(v domain.DatabaseVersion) int64 {
	return int64(v.Date)*100 + int64(v.Sequence)
}

// FromScore is the inverse of Score.
func FromScore(s int64) domain.DatabaseVersion {
	return domain.DatabaseVersion{Date: uint32(s / 100), Sequence: uint8(s % 100)}
}

// Expired returns the versions to delete so that only the newest keep remain.
// versions must be sorted oldest first.
func Expired(versions []domain.DatabaseVersion, keep int) []domain.DatabaseVersion {
	if keep < 1 {
		keep = 1
	}
	if len(versions) <= keep {
		return nil
	}
	return versions[:len(versions)-keep]
}
