package emit

import (
	"bytes"
	"fmt"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// Table is a decoded binary catalog.
type Table struct {
	Header        domain.Header
	Compatibility domain.Compatibility
	Records       []domain.CompactServiceRecord
	Providers     []string
}

// ProviderName resolves a provider index, "Unknown" when out of range.
func (t *Table) ProviderName(idx uint8) string {
	if int(idx) < len(t.Providers) {
		return t.Providers[idx]
	}
	return "Unknown"
}

// Binary encodes cat as header, packed records, then the provider names,
// each terminated by a NUL byte.
func Binary(cat *domain.Catalog) ([]byte, error) {
	h := cat.Header()
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("catalog header: %w", err)
	}

	size := domain.HeaderSize + len(cat.Services)*domain.CompactRecordSize
	for _, p := range cat.Providers {
		size += len(p) + 1
	}

	buf := h.AppendBinary(make([]byte, 0, size))
	for _, s := range cat.Services {
		var err error
		buf, err = s.Record.AppendBinary(buf)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", s.ID, err)
		}
	}
	for _, p := range cat.Providers {
		if bytes.IndexByte([]byte(p), 0) >= 0 {
			return nil, fmt.Errorf("provider name %q contains NUL", p)
		}
		buf = append(buf, p...)
		buf = append(buf, 0)
	}

	return buf, nil
}

// ParseBinary decodes a table produced by Binary. Tables written by a newer
// minor schema are accepted; a newer major schema is rejected.
func ParseBinary(data []byte) (*Table, error) {
	h, err := domain.ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	compat, err := domain.CheckCompatibility(h)
	if err != nil {
		return nil, err
	}

	rest := data[domain.HeaderSize:]
	recordBytes := int(h.ServiceCount) * int(h.RecordSize)
	if len(rest) < recordBytes {
		return nil, fmt.Errorf("%w: %d record bytes, need %d", domain.ErrInvalidHeader, len(rest), recordBytes)
	}

	t := &Table{
		Header:        h,
		Compatibility: compat,
		Records:       make([]domain.CompactServiceRecord, h.ServiceCount),
		Providers:     make([]string, 0, h.ProviderCount),
	}
	for i := range t.Records {
		off := i * int(h.RecordSize)
		if err := t.Records[i].UnmarshalBinary(rest[off : off+domain.CompactRecordSize]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	names := rest[recordBytes:]
	for i := 0; i < int(h.ProviderCount); i++ {
		end := bytes.IndexByte(names, 0)
		if end < 0 {
			return nil, fmt.Errorf("%w: provider table truncated at entry %d", domain.ErrInvalidHeader, i)
		}
		t.Providers = append(t.Providers, string(names[:end]))
		names = names[end+1:]
	}

	return t, nil
}
