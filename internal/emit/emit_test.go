package emit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

func testCatalog() *domain.Catalog {
	var a, b domain.CompactServiceRecord
	copy(a.Hostname[:], "rtk2go.com")
	a.Port = 2101
	a.Flags = domain.FlagFreeAccess | domain.FlagGlobalService
	a.LatMinDeg100, a.LatMaxDeg100 = -9000, 9000
	a.LonMinDeg100, a.LonMaxDeg100 = -18000, 18000
	a.CoverageLevels = 0b11111
	a.ProviderIndex = 0
	a.NetworkType = 3
	a.QualityRating = 3

	copy(b.Hostname[:], "sapos.example.de")
	b.Port = 443
	b.Flags = domain.FlagSSL | domain.FlagAuthBasic | domain.FlagRequiresReg
	b.LatMinDeg100, b.LatMaxDeg100 = 4727, 5506
	b.LonMinDeg100, b.LonMaxDeg100 = 587, 1504
	b.CoverageLevels = 0b00100
	b.ProviderIndex = 1
	b.NetworkType = 1
	b.QualityRating = 5

	return &domain.Catalog{
		ID:         uuid.MustParse("8f14e45f-ceea-467f-a9a4-3b5f1e0d2c11"),
		Version:    domain.DatabaseVersion{Date: 20241130, Sequence: 2},
		CompiledAt: time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC),
		Services: []domain.CompiledService{
			{ID: "rtk2go", Source: "global/rtk2go.yaml", Provider: "RTK2go", Record: a},
			{ID: "sapos_de", Source: "europe/sapos.yaml", Provider: `Landesamt "SAPOS"`, Record: b},
		},
		Providers: []string{"RTK2go", `Landesamt "SAPOS"`},
		Warnings:  []domain.Diagnostic{{RecordID: "rtk2go", Message: "unknown country code: XX"}},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	cat := testCatalog()

	data, err := Binary(cat)
	require.NoError(t, err)
	assert.Len(t, data, domain.HeaderSize+2*domain.CompactRecordSize+len("RTK2go")+1+len(`Landesamt "SAPOS"`)+1)
	assert.Equal(t, []byte{0x41, 0x52, 0x54, 0x4E}, data[:4])

	table, err := ParseBinary(data)
	require.NoError(t, err)
	assert.Equal(t, domain.Compatible, table.Compatibility)
	assert.Equal(t, cat.Version, table.Header.Version)
	assert.Equal(t, cat.Providers, table.Providers)
	require.Len(t, table.Records, 2)
	assert.Equal(t, cat.Services[0].Record, table.Records[0])
	assert.Equal(t, cat.Services[1].Record, table.Records[1])
	assert.Equal(t, "Unknown", table.ProviderName(9))
}

func TestParseBinaryRejectsDamage(t *testing.T) {
	data, err := Binary(testCatalog())
	require.NoError(t, err)

	_, err = ParseBinary(data[:10])
	assert.ErrorIs(t, err, domain.ErrInvalidHeader)

	_, err = ParseBinary(data[:domain.HeaderSize+domain.CompactRecordSize])
	assert.ErrorIs(t, err, domain.ErrInvalidHeader)

	_, err = ParseBinary(data[:len(data)-1])
	assert.ErrorIs(t, err, domain.ErrInvalidHeader, "missing final NUL")

	bad := append([]byte(nil), data...)
	bad[0] = 0
	_, err = ParseBinary(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidMagic)
}

func TestParseBinaryNewerMinorSchema(t *testing.T) {
	data, err := Binary(testCatalog())
	require.NoError(t, err)
	data[6] = byte(domain.SchemaMinor + 1)

	table, err := ParseBinary(data)
	require.NoError(t, err)
	assert.Equal(t, domain.BackwardOnly, table.Compatibility)
}

func TestBinaryRejectsEmptyCatalog(t *testing.T) {
	cat := testCatalog()
	cat.Services = nil
	_, err := Binary(cat)
	assert.ErrorIs(t, err, domain.ErrInvalidHeader)
}

func TestCSource(t *testing.T) {
	src, hdr, err := CSource(testCatalog())
	require.NoError(t, err)

	c := string(src)
	assert.Contains(t, c, "GENERATED FILE - DO NOT EDIT")
	assert.Contains(t, c, "Database version: 20241130.02")
	assert.Contains(t, c, `#include "ntrip_generated_services.h"`)
	assert.Contains(t, c, `    "RTK2go",  // Index 0`)
	assert.Contains(t, c, `    "Landesamt \"SAPOS\"",  // Index 1`)
	assert.Contains(t, c, "// sapos_de: coverage levels 0b00100 (national)")
	assert.Contains(t, c, ".flags = NTRIP_FLAG_FREE_ACCESS | NTRIP_FLAG_GLOBAL_SERVICE,")
	assert.Contains(t, c, ".flags = NTRIP_FLAG_SSL | NTRIP_FLAG_AUTH_BASIC | NTRIP_FLAG_REQUIRES_REG,")
	assert.Contains(t, c, ".lat_min_deg100 = 4727,")
	assert.Contains(t, c, ".lon_min_deg100 = -18000,")
	assert.Contains(t, c, "#define GENERATED_SERVICE_COUNT 2")
	assert.Contains(t, c, `if (provider_index >= GENERATED_PROVIDER_COUNT) return "Unknown";`)
	assert.Equal(t, 1, strings.Count(c, "    },\n"), "no trailing comma after the last element")

	h := string(hdr)
	assert.Contains(t, h, "#define NTRIP_DATABASE_MAGIC        0x4E545241")
	assert.Contains(t, h, "#define NTRIP_FLAG_SSL")
	assert.Contains(t, h, "} __attribute__((packed)) ntrip_service_compact_t;  // 47 bytes")
	assert.Contains(t, h, "const char* get_provider_name(uint8_t provider_index);")
}

func TestCSourceIsDeterministic(t *testing.T) {
	a, _, err := CSource(testCatalog())
	require.NoError(t, err)
	b, _, err := CSource(testCatalog())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCatalogView(t *testing.T) {
	cat := testCatalog()
	v := NewCatalogView(cat)

	assert.Equal(t, "20241130.02", v.Version)
	require.Len(t, v.Services, 2)

	s := v.Services[1]
	assert.Equal(t, "sapos_de", s.ID)
	assert.Equal(t, `Landesamt "SAPOS"`, s.Provider)
	assert.Equal(t, "sapos.example.de", s.Hostname)
	assert.Equal(t, []string{"NTRIP_FLAG_SSL", "NTRIP_FLAG_AUTH_BASIC", "NTRIP_FLAG_REQUIRES_REG"}, s.FlagNames)
	assert.Equal(t, []string{"national"}, s.Levels)
	assert.InDelta(t, 47.27, s.BoundingBox.LatMin, 1e-9)
}

func TestProvidersJSON(t *testing.T) {
	data, err := ProvidersJSON(testCatalog())
	require.NoError(t, err)

	var got []ProviderView
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []ProviderView{{Index: 0, Name: "RTK2go"}, {Index: 1, Name: `Landesamt "SAPOS"`}}, got)
}

func TestArtifacts(t *testing.T) {
	arts, err := Artifacts(testCatalog())
	require.NoError(t, err)

	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Name
		assert.NotEmpty(t, a.Data, a.Name)
		assert.NotEmpty(t, a.ContentType, a.Name)
	}
	assert.Equal(t, []string{CSourceName, CHeaderName, BinaryName, ProvidersJSONName, CatalogJSONName}, names)
}
