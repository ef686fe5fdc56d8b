package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// Loader reads every service file under a data directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the data directory.
func (l *Loader) Dir() string { return l.dir }

// Load parses all service files, sorted by relative path.
//
// A file that cannot be read or is not valid YAML fails the whole load;
// structural problems inside a parsed service are left to the validator.
func (l *Loader) Load() ([]domain.SourceRecord, error) {
	paths, err := l.files()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no service files found in %s", l.dir)
	}

	records := make([]domain.SourceRecord, 0, len(paths))
	for _, rel := range paths {
		rec, err := l.loadFile(rel)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (l *Loader) files() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || skipFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) loadFile(rel string) (domain.SourceRecord, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(rel)))
	if err != nil {
		return domain.SourceRecord{}, fmt.Errorf("failed to read service file %s: %w", rel, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.SourceRecord{}, fmt.Errorf("failed to parse service yaml %s: %w", rel, err)
	}

	return domain.SourceRecord{
		Source:   rel,
		Fields:   doc.Service,
		Examples: doc.ExampleMountpoints,
	}, nil
}

// skipFile filters out everything that is not a service definition:
// the schema itself, exclusion lists and editorial notes.
func skipFile(name string) bool {
	if !strings.HasSuffix(name, ".yaml") {
		return true
	}
	return name == "schema.yaml" ||
		strings.HasPrefix(name, "excluded_") ||
		strings.HasSuffix(name, "_notes.yaml")
}
