package redis

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

const (
	// KeyPrefixCatalog is the prefix for catalog snapshot keys
	KeyPrefixCatalog = "atlas:catalog:"
	// KeyVersions is the sorted set of stored versions, scored YYYYMMDDSS
	KeyVersions = "atlas:catalog:versions"
	// KeyLatest holds the version string of the last saved catalog
	KeyLatest = "atlas:catalog:latest"
)

// CatalogKey returns the Redis key for a catalog snapshot
func CatalogKey(v domain.DatabaseVersion) string {
	return KeyPrefixCatalog + v.String()
}

// VersionsKey returns the key for the sorted set of versions
func VersionsKey() string {
	return KeyVersions
}

// LatestKey returns the key for the latest version pointer
func LatestKey() string {
	return KeyLatest
}

// ExtractVersion extracts the database version from a catalog key
func ExtractVersion(key string) (domain.DatabaseVersion, error) {
	raw, ok := strings.CutPrefix(key, KeyPrefixCatalog)
	if !ok || raw == "" {
		return domain.DatabaseVersion{}, fmt.Errorf("invalid catalog key: %s", key)
	}
	return domain.ParseDatabaseVersion(raw)
}
