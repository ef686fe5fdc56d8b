package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/compiler"
	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/sources/catalog"
	"github.com/MrSnakeDoc/atlas/internal/store/leveldb"
)

var testNow = time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)

// fakeSource returns whatever records it currently holds.
type fakeSource struct {
	mu      sync.Mutex
	records []domain.SourceRecord
	err     error
	loads   int
}

func (f *fakeSource) Load() ([]domain.SourceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.records, f.err
}

func (f *fakeSource) set(records ...domain.SourceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func record(id, provider string) domain.SourceRecord {
	return domain.SourceRecord{
		Source: id + ".yaml",
		Fields: map[string]any{
			"id":       id,
			"provider": provider,
			"country":  "DE",
			"endpoints": []any{
				map[string]any{"hostname": "caster.example.de", "port": 2101, "ssl": false},
			},
			"coverage": map[string]any{
				"bounding_box": map[string]any{"lat_min": 47.27, "lat_max": 55.06, "lon_min": 5.87, "lon_max": 15.04},
			},
			"authentication": map[string]any{"required": true, "method": "basic"},
			"quality": map[string]any{
				"reliability_rating": 4,
				"accuracy_rating":    4,
				"network_type":       "government",
			},
		},
	}
}

func brokenRecord(id string) domain.SourceRecord {
	rec := record(id, "P")
	rec.Fields["endpoints"].([]any)[0].(map[string]any)["port"] = 0
	return rec
}

func newCompiler() *compiler.Compiler {
	return compiler.New(logger.Nop(), catalog.NewMapper()).WithClock(func() time.Time { return testNow })
}

func newLevelDB(t *testing.T) *leveldb.Store {
	t.Helper()
	s, err := leveldb.Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func saveVersions(t *testing.T, s *leveldb.Store, seqs ...uint8) {
	t.Helper()
	for _, seq := range seqs {
		cat := &domain.Catalog{
			Version:   domain.DatabaseVersion{Date: 20241130, Sequence: seq},
			Providers: []string{},
		}
		if err := s.SaveCatalog(context.Background(), cat); err != nil {
			t.Fatalf("SaveCatalog() error = %v", err)
		}
	}
}
