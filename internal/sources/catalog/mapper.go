package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// Mapper converts validated source records to typed service records.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapRecord re-decodes the loosely-typed service block into a ServiceRecord.
//
// It must only be called on records that passed validation; a failure here
// means the validator let something through.
func (m *Mapper) MapRecord(src domain.SourceRecord) (*domain.ServiceRecord, error) {
	if src.Fields == nil {
		return nil, fmt.Errorf("record %s has no service block", src.Source)
	}

	raw, err := yaml.Marshal(src.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode record %s: %w", src.Source, err)
	}

	var rec domain.ServiceRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to map record %s: %w", src.Source, err)
	}
	if len(rec.Endpoints) == 0 {
		return nil, fmt.Errorf("record %s has no endpoints", src.Source)
	}

	rec.Source = src.Source
	return &rec, nil
}
