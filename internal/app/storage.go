package app

import (
	"fmt"

	"github.com/MrSnakeDoc/atlas/internal/config"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/storage"
)

// NewArtifactStorage builds the artifact sink selected by cfg.StorageProvider.
func NewArtifactStorage(cfg *config.Config, log logger.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderLocal:
		st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.StorageLocalPath}, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case storage.ProviderR2:
		st, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2Bucket,
			Region:          cfg.R2Region,
			Endpoint:        cfg.R2Endpoint,
			PathStyle:       cfg.R2PathStyle,
		}, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
