package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/emit"
)

const gaService = `service:
  id: ga_auscors
  provider: Geoscience Australia
  country: AUS
  endpoints:
    - hostname: ntrip.data.gnss.ga.gov.au
      port: 443
      ssl: true
  coverage:
    bounding_box: {lat_min: -45.0, lat_max: -10.0, lon_min: 110.0, lon_max: 160.0}
  authentication:
    required: true
    method: basic
    registration_required: true
    registration_url: https://gnss.ga.gov.au/stream
  quality:
    reliability_rating: 5
    accuracy_rating: 5
    network_type: government
`

const rtk2goService = `service:
  id: rtk2go
  provider: RTK2go
  country: XX
  endpoints:
    - hostname: rtk2go.com
      port: 2101
  coverage:
    bounding_box: {lat_min: -90, lat_max: 90, lon_min: -180, lon_max: 180}
  authentication:
    required: false
    method: none
  quality:
    reliability_rating: 3
    accuracy_rating: 3
    network_type: community
`

func writeService(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCompile(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Compile(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompileWritesArtifacts(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)
	writeService(t, data, "global/rtk2go.yaml", rtk2goService)

	code, stdout, stderr := runCompile(t, "-data", data, "-out", out, "-log-level", "error")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "compiled 2 services, 2 providers")
	assert.Contains(t, stderr, "rtk2go (global/rtk2go.yaml): unknown country code: XX")
	assert.Contains(t, stderr, "missing 'ssl' field")

	for _, name := range []string{emit.CSourceName, emit.CHeaderName, emit.BinaryName, emit.ProvidersJSONName, emit.CatalogJSONName} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}

	bin, err := os.ReadFile(filepath.Join(out, emit.BinaryName))
	require.NoError(t, err)
	table, err := emit.ParseBinary(bin)
	require.NoError(t, err)
	assert.Equal(t, []string{"Geoscience Australia", "RTK2go"}, table.Providers)
}

func TestCompileRejectsInvalidRecords(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)
	writeService(t, data, "global/rtk2go.yaml", strings.Replace(rtk2goService, "port: 2101", "port: 70000", 1))

	code, stdout, stderr := runCompile(t, "-data", data, "-out", out, "-quiet")
	assert.Equal(t, ExitRejected, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "rtk2go (global/rtk2go.yaml)")
	assert.Contains(t, stderr, "invalid port: 70000")
	assert.Contains(t, stderr, "nothing written")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "fail-closed: no partial output")
}

func TestCompileRejectsDuplicateIDs(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "a/ga.yaml", gaService)
	writeService(t, data, "b/ga.yaml", gaService)

	code, _, stderr := runCompile(t, "-data", data, "-out", out, "-quiet")
	assert.Equal(t, ExitRejected, code)
	assert.Contains(t, stderr, "already defined in a/ga.yaml")
}

func TestCompileUsageErrors(t *testing.T) {
	data := t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-frobnicate"}, ExitInternal},
		{"stray argument", []string{"-data", data, "extra"}, ExitInternal},
		{"bad previous version", []string{"-data", data, "-previous", "yesterday"}, ExitInternal},
		{"help", []string{"-h"}, ExitOK},
		{"missing data dir", []string{"-data", filepath.Join(data, "nope")}, ExitRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCompile(t, append(tt.args, "-out", t.TempDir())...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestCompileContinuesVersionSequence(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)

	code, _, stderr := runCompile(t, "-data", data, "-out", out, "-quiet")
	require.Equal(t, ExitOK, code, stderr)
	first := readVersion(t, out)

	code, _, stderr = runCompile(t, "-data", data, "-out", out, "-quiet", "-previous", first.String())
	require.Equal(t, ExitOK, code, stderr)
	second := readVersion(t, out)

	assert.True(t, first.Less(second), "%s then %s", first, second)
}

func TestCompileContinuesFromPublishedTable(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)

	code, _, stderr := runCompile(t, "-data", data, "-out", out, "-quiet")
	require.Equal(t, ExitOK, code, stderr)
	first := readVersion(t, out)

	code, _, stderr = runCompile(t, "-data", data, "-out", out, "-quiet")
	require.Equal(t, ExitOK, code, stderr)
	second := readVersion(t, out)

	assert.True(t, first.Less(second), "%s then %s", first, second)
}

func TestCompileIgnoresDamagedPublishedTable(t *testing.T) {
	data, out := t.TempDir(), t.TempDir()
	writeService(t, data, "oceania/ga.yaml", gaService)
	require.NoError(t, os.WriteFile(filepath.Join(out, emit.BinaryName), []byte("garbage"), 0o644))

	code, _, stderr := runCompile(t, "-data", data, "-out", out, "-quiet")
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, uint8(0), readVersion(t, out).Sequence)
}

func readVersion(t *testing.T, dir string) domain.DatabaseVersion {
	t.Helper()
	bin, err := os.ReadFile(filepath.Join(dir, emit.BinaryName))
	require.NoError(t, err)
	table, err := emit.ParseBinary(bin)
	require.NoError(t, err)
	return table.Header.Version
}
