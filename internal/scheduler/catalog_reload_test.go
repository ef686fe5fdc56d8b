package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/emit"
	"github.com/MrSnakeDoc/atlas/internal/index"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/storage"
)

func TestCatalogReloader_Reload(t *testing.T) {
	src := &fakeSource{}
	src.set(record("sapos_by", "LDBV"), record("ascos", "AXIO-NET"))

	db := newLevelDB(t)
	artifacts, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	idx := index.NewCatalogIndex()
	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:         src,
		Compiler:       newCompiler(),
		Index:          idx,
		Stores:         []NamedStore{{Name: "leveldb", Store: db}},
		Logger:         logger.Nop(),
		Interval:       time.Hour,
		Artifacts:      artifacts,
		ArtifactPrefix: "atlas",
	})

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if idx.Count() != 2 {
		t.Errorf("index has %d services, want 2", idx.Count())
	}
	if _, ok := idx.Service("ascos"); !ok {
		t.Error("ascos missing from index")
	}

	stored, err := db.LatestCatalog(context.Background())
	if err != nil {
		t.Fatalf("LatestCatalog() error = %v", err)
	}
	if stored.ID != idx.Current().ID {
		t.Error("stored catalog differs from the served one")
	}

	exists, err := artifacts.Exists(context.Background(), storage.LatestKey("atlas", emit.BinaryName))
	if err != nil || !exists {
		t.Errorf("latest binary not published: exists=%v err=%v", exists, err)
	}

	report := cr.LastReport()
	if report == nil || !report.Success || report.Version != "20241130.00" || report.Services != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestCatalogReloader_FailureKeepsPreviousCatalog(t *testing.T) {
	src := &fakeSource{}
	src.set(record("good", "P"))

	idx := index.NewCatalogIndex()
	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:   src,
		Compiler: newCompiler(),
		Index:    idx,
		Logger:   logger.Nop(),
		Interval: time.Hour,
	})

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload() error = %v", err)
	}
	served := idx.Current()

	src.set(record("good", "P"), brokenRecord("bad_one"), brokenRecord("bad_two"))
	if err := cr.Reload(context.Background()); err == nil {
		t.Fatal("Reload() with invalid records should fail")
	}

	if idx.Current() != served {
		t.Error("a rejected compilation replaced the served catalog")
	}

	report := cr.LastReport()
	if report.Success {
		t.Fatal("report should record the failure")
	}
	if len(report.Failures) != 2 {
		t.Fatalf("report has %d failures, want 2: %v", len(report.Failures), report.Failures)
	}
	if !strings.HasPrefix(report.Failures[0], "bad_one") || !strings.HasPrefix(report.Failures[1], "bad_two") {
		t.Errorf("failures not attributed to their records: %v", report.Failures)
	}
}

func TestCatalogReloader_LoadError(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:   src,
		Compiler: newCompiler(),
		Index:    index.NewCatalogIndex(),
		Logger:   logger.Nop(),
		Interval: time.Hour,
	})

	err := cr.Reload(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("Reload() error = %v, want load error", err)
	}
	if r := cr.LastReport(); r == nil || r.Success || r.Error == "" {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCatalogReloader_StartFailsWithNothingToServe(t *testing.T) {
	src := &fakeSource{}
	src.set(brokenRecord("bad"))

	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:   src,
		Compiler: newCompiler(),
		Index:    index.NewCatalogIndex(),
		Logger:   logger.Nop(),
		Interval: time.Hour,
	})

	if err := cr.Start(context.Background()); err == nil {
		cr.Stop()
		t.Fatal("Start() should fail when the first compilation fails and nothing was restored")
	}
}

func TestCatalogReloader_ManualTrigger(t *testing.T) {
	src := &fakeSource{}
	src.set(record("a", "P"))

	trigger := make(chan struct{}, 1)
	idx := index.NewCatalogIndex()
	cr := NewCatalogReloader(CatalogReloaderConfig{
		Source:        src,
		Compiler:      newCompiler(),
		Index:         idx,
		Logger:        logger.Nop(),
		Interval:      time.Hour,
		ManualTrigger: trigger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer cr.Stop()

	src.set(record("a", "P"), record("b", "P"))
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for idx.Count() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("manual trigger did not reload: %d loads, %d services", src.loadCount(), idx.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if v := idx.Current().Version.Sequence; v != 1 {
		t.Errorf("second compilation has sequence %d, want 1", v)
	}
}
