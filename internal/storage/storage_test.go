package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/logger"
)

func newLocal(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: dir}, logger.Nop())
	require.NoError(t, err)
	return s, dir
}

func TestLocalPutGet(t *testing.T) {
	s, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "catalogs/latest/atlas.bin", strings.NewReader("NTRA"), PutOptions{}))

	onDisk, err := os.ReadFile(filepath.Join(dir, "catalogs", "latest", "atlas.bin"))
	require.NoError(t, err)
	assert.Equal(t, "NTRA", string(onDisk))

	rc, info, err := s.Get(ctx, "catalogs/latest/atlas.bin")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "NTRA", string(data))
	assert.Equal(t, int64(4), info.Size)

	exists, err := s.Exists(ctx, "catalogs/latest/atlas.bin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalOverwrite(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.json", strings.NewReader("1"), PutOptions{}))

	err := s.Put(ctx, "a.json", strings.NewReader("2"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Put", se.Op)

	require.NoError(t, s.Put(ctx, "a.json", strings.NewReader("2"), PutOptions{Overwrite: true}))
	rc, info, err := s.Get(ctx, "a.json")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "2", string(data))
	assert.Equal(t, "application/json", info.ContentType)
}

func TestLocalDelete(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "x.c", strings.NewReader("int x;"), PutOptions{}))
	require.NoError(t, s.Delete(ctx, "x.c"))
	require.NoError(t, s.Delete(ctx, "x.c"), "delete is idempotent")

	_, _, err := s.Get(ctx, "x.c")
	assert.True(t, IsNotFound(err))

	exists, err := s.Exists(ctx, "x.c")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalRejectsTraversal(t *testing.T) {
	s, _ := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/../../escape", "/etc/passwd", "."} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, validateKey("catalogs/20241130.00/atlas.bin"))
	assert.ErrorIs(t, validateKey(""), ErrInvalidKey)
	assert.ErrorIs(t, validateKey("a/../b"), ErrInvalidKey)
}

func TestWrapS3Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &smithy.GenericAPIError{Code: "NoSuchKey"}, ErrNotFound},
		{"forbidden", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, wrapS3Error(tt.err), tt.want)
		})
	}

	other := wrapS3Error(errors.New("connection reset"))
	assert.False(t, errors.Is(other, ErrNotFound))
	assert.Contains(t, other.Error(), "connection reset")
}

func TestNewR2StorageRequiresBucket(t *testing.T) {
	_, err := NewR2Storage(R2Config{AccountID: "acc"}, logger.Nop())
	assert.Error(t, err)

	_, err = NewR2Storage(R2Config{BucketName: "b"}, logger.Nop())
	assert.Error(t, err)

	s, err := NewR2Storage(R2Config{BucketName: "b", Endpoint: "http://127.0.0.1:9000", PathStyle: true}, logger.Nop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestKeys(t *testing.T) {
	v := domain.DatabaseVersion{Date: 20241130, Sequence: 2}
	assert.Equal(t, "atlas/20241130.02/atlas.bin", ArtifactKey("atlas", v, "atlas.bin"))
	assert.Equal(t, "20241130.02/atlas.bin", ArtifactKey("", v, "atlas.bin"))
	assert.Equal(t, "atlas/latest/catalog.json", LatestKey("atlas", "catalog.json"))
}
