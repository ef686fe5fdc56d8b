package emit

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/storage"
)

func readKey(t *testing.T, st storage.Storage, key string) []byte {
	t.Helper()
	rc, _, err := st.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestPublish(t *testing.T) {
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()}, logger.Nop())
	require.NoError(t, err)

	cat := testCatalog()
	arts, err := Artifacts(cat)
	require.NoError(t, err)

	require.NoError(t, Publish(context.Background(), st, "atlas", cat.Version, arts))
	require.NoError(t, Publish(context.Background(), st, "atlas", cat.Version, arts), "republishing overwrites")

	bin, err := Binary(cat)
	require.NoError(t, err)
	assert.Equal(t, bin, readKey(t, st, "atlas/20241130.02/atlas.bin"))
	assert.Equal(t, bin, readKey(t, st, "atlas/latest/atlas.bin"))
}

func TestWriteAll(t *testing.T) {
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()}, logger.Nop())
	require.NoError(t, err)

	arts, err := Artifacts(testCatalog())
	require.NoError(t, err)
	require.NoError(t, WriteAll(context.Background(), st, arts))

	for _, a := range arts {
		assert.Equal(t, a.Data, readKey(t, st, a.Name), a.Name)
	}
}
