package compiler

import (
	"cmp"
	"slices"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// SortCanonical puts records in the canonical catalog order: by id, then by
// source. Provider indices and output order both derive from it.
func SortCanonical(recs []*domain.ServiceRecord) {
	slices.SortStableFunc(recs, func(a, b *domain.ServiceRecord) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
}

// BuildProviders assigns provider indices in first-seen order over ordered,
// which must already be canonical. The returned dictionary is frozen.
//
// Exceeding domain.MaxProviders fails with a domain.RecordError naming the
// record that introduced the overflowing provider.
func BuildProviders(ordered []*domain.ServiceRecord) (*domain.ProviderDictionary, error) {
	dict := domain.NewProviderDictionary()
	for _, rec := range ordered {
		if _, err := dict.Add(rec.Provider); err != nil {
			return nil, domain.RecordError{RecordID: rec.ID, Source: rec.Source, Err: err}
		}
	}
	dict.Freeze()
	return dict, nil
}
