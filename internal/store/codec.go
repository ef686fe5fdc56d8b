package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// snapshot is the stored form of a catalog. Records keep their packed
// 47-byte layout so a restored catalog is byte-identical to the compiled one.
type snapshot struct {
	ID         uuid.UUID              `json:"id"`
	Version    domain.DatabaseVersion `json:"version"`
	CompiledAt time.Time              `json:"compiled_at"`
	Providers  []string               `json:"providers"`
	Warnings   []domain.Diagnostic    `json:"warnings,omitempty"`
	Services   []snapshotService      `json:"services"`
}

type snapshotService struct {
	ID       string `json:"id"`
	Source   string `json:"source,omitempty"`
	Provider string `json:"provider"`
	Record   []byte `json:"record"`
}

// Encode serializes a catalog for storage.
func Encode(cat *domain.Catalog) ([]byte, error) {
	snap := snapshot{
		ID:         cat.ID,
		Version:    cat.Version,
		CompiledAt: cat.CompiledAt,
		Providers:  cat.Providers,
		Warnings:   cat.Warnings,
		Services:   make([]snapshotService, len(cat.Services)),
	}

	for i, s := range cat.Services {
		rec, err := s.Record.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to encode service %s: %w", s.ID, err)
		}
		snap.Services[i] = snapshotService{ID: s.ID, Source: s.Source, Provider: s.Provider, Record: rec}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}

// Decode restores a catalog written by Encode.
func Decode(data []byte) (*domain.Catalog, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	cat := &domain.Catalog{
		ID:         snap.ID,
		Version:    snap.Version,
		CompiledAt: snap.CompiledAt,
		Providers:  snap.Providers,
		Warnings:   snap.Warnings,
		Services:   make([]domain.CompiledService, len(snap.Services)),
	}

	for i, s := range snap.Services {
		var rec domain.CompactServiceRecord
		if err := rec.UnmarshalBinary(s.Record); err != nil {
			return nil, fmt.Errorf("failed to decode service %s: %w", s.ID, err)
		}
		if int(rec.ProviderIndex) >= len(cat.Providers) {
			return nil, fmt.Errorf("service %s: provider index %d out of range", s.ID, rec.ProviderIndex)
		}
		cat.Services[i] = domain.CompiledService{ID: s.ID, Source: s.Source, Provider: s.Provider, Record: rec}
	}

	return cat, nil
}
