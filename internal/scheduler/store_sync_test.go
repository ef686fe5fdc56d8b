package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
)

func TestStoreSyncer_RestoresLatest(t *testing.T) {
	empty := newLevelDB(t)
	full := newLevelDB(t)

	// Produce a real catalog and persist it.
	src := &fakeSource{}
	src.set(record("a", "P"))
	first := index.NewCatalogIndex()
	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:   src,
		Compiler: newCompiler(),
		Index:    first,
		Stores:   []NamedStore{{Name: "full", Store: full}},
		Logger:   logger.Nop(),
		Interval: time.Hour,
	})
	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	idx := index.NewCatalogIndex()
	c := newCompiler()
	stores := []NamedStore{{Name: "empty", Store: empty}, {Name: "full", Store: full}}

	if err := NewStoreSyncer(stores, idx, c, logger.Nop()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if !idx.Loaded() || idx.Current().ID != first.Current().ID {
		t.Fatal("Sync() did not restore the stored catalog")
	}

	next, err := c.Compile(context.Background(), src.records)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if next.Version.Sequence != 1 {
		t.Errorf("compilation after restore has sequence %d, want 1", next.Version.Sequence)
	}
}

func TestStoreSyncer_NothingStored(t *testing.T) {
	idx := index.NewCatalogIndex()
	stores := []NamedStore{{Name: "empty", Store: newLevelDB(t)}}

	if err := NewStoreSyncer(stores, idx, newCompiler(), logger.Nop()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if idx.Loaded() {
		t.Error("index should stay empty")
	}
}
