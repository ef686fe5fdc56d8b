package emit

import (
	"bytes"
	"context"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/storage"
)

// WriteAll stores artifacts under their bare names, replacing older copies.
func WriteAll(ctx context.Context, st storage.Storage, arts []Artifact) error {
	for _, a := range arts {
		if err := put(ctx, st, a.Name, a); err != nil {
			return err
		}
	}
	return nil
}

// Publish stores artifacts under <prefix>/<version>/ and then refreshes
// <prefix>/latest/. Latest is only touched once every versioned copy is in place.
func Publish(ctx context.Context, st storage.Storage, prefix string, v domain.DatabaseVersion, arts []Artifact) error {
	for _, a := range arts {
		if err := put(ctx, st, storage.ArtifactKey(prefix, v, a.Name), a); err != nil {
			return err
		}
	}
	for _, a := range arts {
		if err := put(ctx, st, storage.LatestKey(prefix, a.Name), a); err != nil {
			return err
		}
	}
	return nil
}

func put(ctx context.Context, st storage.Storage, key string, a Artifact) error {
	return st.Put(ctx, key, bytes.NewReader(a.Data), storage.PutOptions{
		ContentType: a.ContentType,
		Overwrite:   true,
	})
}
