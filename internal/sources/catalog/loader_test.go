package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleService = `schema_version: "1.0.0"
service:
  id: ga_auscors
  provider: Geoscience Australia
  country: AUS
  endpoints:
    - hostname: ntrip.data.gnss.ga.gov.au
      port: 443
      ssl: true
    - hostname: auscors.ga.gov.au
      port: 2101
      ssl: false
  coverage:
    bounding_box:
      lat_min: -45.0
      lat_max: -10.0
      lon_min: 110.0
      lon_max: 160.0
    hierarchical:
      continental: 0
      national: 5
  authentication:
    required: true
    method: basic
    registration_required: true
    registration_url: https://gnss.ga.gov.au/stream
  quality:
    reliability_rating: 5
    accuracy_rating: 5
    network_type: government
example_mountpoints:
  - name: SYDN00AUS0
    coordinates: [-33.87, 151.21]
`

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "oceania/ga.yaml", sampleService)

	records, err := NewLoader(tmpDir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Load() returned %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Source != "oceania/ga.yaml" {
		t.Errorf("Source = %q, want oceania/ga.yaml", rec.Source)
	}
	if rec.ID() != "ga_auscors" {
		t.Errorf("ID() = %q, want ga_auscors", rec.ID())
	}
	if len(rec.Examples) != 1 {
		t.Errorf("Examples = %d, want 1", len(rec.Examples))
	}
	if port, ok := rec.Fields["endpoints"].([]any)[0].(map[string]any)["port"].(int); !ok || port != 443 {
		t.Errorf("first endpoint port = %v, want int 443", port)
	}
}

func TestLoaderSkipsMetadataAndSorts(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "z/last.yaml", "service:\n  id: last\n")
	writeFile(t, tmpDir, "a/first.yaml", "service:\n  id: first\n")
	writeFile(t, tmpDir, "schema.yaml", "type: object\n")
	writeFile(t, tmpDir, "a/excluded_services.yaml", "- nope\n")
	writeFile(t, tmpDir, "a/germany_notes.yaml", "notes: []\n")
	writeFile(t, tmpDir, "README.md", "# data\n")

	records, err := NewLoader(tmpDir).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Source
	}
	want := []string{"a/first.yaml", "z/last.yaml"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Load() sources = %v, want %v", got, want)
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "bad.yaml", "service: [unclosed\n")

	if _, err := NewLoader(tmpDir).Load(); err == nil {
		t.Error("Load() with invalid YAML should return error")
	}
}

func TestLoaderEmptyDirectory(t *testing.T) {
	if _, err := NewLoader(t.TempDir()).Load(); err == nil {
		t.Error("Load() on empty directory should return error")
	}
}

func TestLoaderDirectoryNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/data").Load(); err == nil {
		t.Error("Load() with non-existent directory should return error")
	}
}

func TestSkipFile(t *testing.T) {
	tests := []struct {
		name string
		skip bool
	}{
		{"ga.yaml", false},
		{"schema.yaml", true},
		{"excluded_services.yaml", true},
		{"germany_notes.yaml", true},
		{"ga.yml", true},
		{"notes.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skipFile(tt.name); got != tt.skip {
				t.Errorf("skipFile(%q) = %v, want %v", tt.name, got, tt.skip)
			}
		})
	}
}
