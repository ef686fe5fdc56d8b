// Package storetest holds fixtures and a conformance suite shared by the
// catalog store backends.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/store"
)

// Catalog builds a small two-service catalog with the given version.
func Catalog(date uint32, seq uint8) *domain.Catalog {
	var a, b domain.CompactServiceRecord
	copy(a.Hostname[:], "rtk2go.com")
	a.Port = 2101
	a.Flags = domain.FlagFreeAccess | domain.FlagGlobalService
	a.LatMinDeg100, a.LatMaxDeg100 = -9000, 9000
	a.LonMinDeg100, a.LonMaxDeg100 = -18000, 18000
	a.CoverageLevels = domain.AllLevelsMask
	a.NetworkType = 3
	a.QualityRating = 3

	copy(b.Hostname[:], "ntrip.data.gnss.ga.gov.au")
	b.Port = 443
	b.Flags = domain.FlagSSL | domain.FlagAuthBasic | domain.FlagRequiresReg
	b.LatMinDeg100, b.LatMaxDeg100 = -4500, -1000
	b.LonMinDeg100, b.LonMaxDeg100 = 11000, 16000
	b.CoverageLevels = 0b00100
	b.ProviderIndex = 1
	b.NetworkType = 1
	b.QualityRating = 5

	return &domain.Catalog{
		ID:         uuid.New(),
		Version:    domain.DatabaseVersion{Date: date, Sequence: seq},
		CompiledAt: time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC),
		Services: []domain.CompiledService{
			{ID: "ga_auscors", Source: "oceania/ga.yaml", Provider: "Geoscience Australia", Record: b},
			{ID: "rtk2go", Source: "global/rtk2go.yaml", Provider: "RTK2go", Record: a},
		},
		Providers: []string{"RTK2go", "Geoscience Australia"},
		Warnings:  []domain.Diagnostic{{RecordID: "rtk2go", Source: "global/rtk2go.yaml", Message: "unknown country code: XX"}},
	}
}

// Run exercises a CatalogStore against the behaviour every backend shares.
// The store must start empty.
func Run(t *testing.T, s store.CatalogStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := s.LatestCatalog(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)

		versions, err := s.ListVersions(ctx)
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	first := Catalog(20241130, 0)
	second := Catalog(20241130, 1)
	older := Catalog(20241129, 7)

	t.Run("save and restore", func(t *testing.T) {
		require.NoError(t, s.SaveCatalog(ctx, first))

		got, err := s.LatestCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, first.Version, got.Version)
		assert.True(t, first.CompiledAt.Equal(got.CompiledAt))
		assert.Equal(t, first.Providers, got.Providers)
		assert.Equal(t, first.Services, got.Services)
		assert.Equal(t, first.Warnings, got.Warnings)
	})

	t.Run("latest follows the last save", func(t *testing.T) {
		require.NoError(t, s.SaveCatalog(ctx, second))
		require.NoError(t, s.SaveCatalog(ctx, older))

		got, err := s.LatestCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, older.Version, got.Version)

		versions, err := s.ListVersions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.DatabaseVersion{older.Version, first.Version, second.Version}, versions)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteVersion(ctx, first.Version))
		require.NoError(t, s.DeleteVersion(ctx, first.Version))

		versions, err := s.ListVersions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.DatabaseVersion{older.Version, second.Version}, versions)
	})

	t.Run("deleting latest clears the pointer", func(t *testing.T) {
		require.NoError(t, s.DeleteVersion(ctx, older.Version))

		_, err := s.LatestCatalog(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
