// Package storage publishes compiled artifacts to a local directory or an
// S3-compatible bucket (Cloudflare R2, MinIO, AWS S3).
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// Storage is implemented by every artifact sink.
type Storage interface {
	// Put stores data at key. Without opts.Overwrite an existing key yields ErrKeyExists.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the object at key. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions tunes a single Put.
type PutOptions struct {
	ContentType string
	Overwrite   bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"
	// ProviderR2 identifies an S3-compatible bucket.
	ProviderR2 = "r2"
)

// LocalConfig configures LocalStorage.
type LocalConfig struct {
	BasePath string
}

// R2Config configures R2Storage. Endpoint overrides the Cloudflare URL built
// from AccountID, for MinIO or AWS.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Endpoint        string
	PathStyle       bool
}

// ArtifactKey is where a versioned artifact is published.
func ArtifactKey(prefix string, v domain.DatabaseVersion, name string) string {
	return joinKey(prefix, v.String(), name)
}

// LatestKey is where the newest copy of an artifact is published.
func LatestKey(prefix, name string) string {
	return joinKey(prefix, "latest", name)
}

func joinKey(prefix, dir, name string) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s", dir, name)
	}
	return fmt.Sprintf("%s/%s/%s", prefix, dir, name)
}
