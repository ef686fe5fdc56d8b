package emit

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

const (
	CSourceName = "ntrip_generated_services.c"
	CHeaderName = "ntrip_generated_services.h"
)

var flagNames = []struct {
	bit  uint8
	name string
}{
	{domain.FlagSSL, "NTRIP_FLAG_SSL"},
	{domain.FlagAuthBasic, "NTRIP_FLAG_AUTH_BASIC"},
	{domain.FlagAuthDigest, "NTRIP_FLAG_AUTH_DIGEST"},
	{domain.FlagRequiresReg, "NTRIP_FLAG_REQUIRES_REG"},
	{domain.FlagFreeAccess, "NTRIP_FLAG_FREE_ACCESS"},
	{domain.FlagGlobalService, "NTRIP_FLAG_GLOBAL_SERVICE"},
}

var funcs = template.FuncMap{
	"cstring": cString,
	"comment": comment,
	"flags":   flagExpr,
	"binary":  func(m uint8) string { return fmt.Sprintf("0b%05b", m) },
	"last":    func(i, n int) bool { return i == n-1 },
	"hex":     func(v uint8) string { return fmt.Sprintf("0x%02X", v) },
	"levels":  levelList,
}

var sourceTmpl = template.Must(template.New("c").Funcs(funcs).Parse(`/**
 * GENERATED FILE - DO NOT EDIT
 * Generated on: {{.Generated}}
 * Database version: {{.Catalog.Version}}
 * Compilation: {{.Catalog.ID}}
 * Services: {{len .Catalog.Services}}
 */

#include "{{.Header}}"

// Provider name lookup table
static const char* provider_names[] = {
{{- range $i, $p := .Catalog.Providers}}
    {{cstring $p}},  // Index {{$i}}
{{- end}}
};

// Hierarchical coverage assignment
{{- range .Catalog.Services}}
// {{comment .ID}}: coverage levels {{binary .Record.CoverageLevels}} ({{levels .Record.CoverageLevels}})
{{- end}}

// Generated service database
static const ntrip_service_compact_t generated_services[] = {
{{- $n := len .Catalog.Services}}
{{- range $i, $s := .Catalog.Services}}
    // {{comment $s.ID}} - {{comment $s.Provider}}
    {
        .hostname = {{cstring $s.Record.HostnameString}},
        .port = {{$s.Record.Port}},
        .flags = {{flags $s.Record.Flags}},
        .lat_min_deg100 = {{$s.Record.LatMinDeg100}},
        .lat_max_deg100 = {{$s.Record.LatMaxDeg100}},
        .lon_min_deg100 = {{$s.Record.LonMinDeg100}},
        .lon_max_deg100 = {{$s.Record.LonMaxDeg100}},
        .coverage_levels = {{binary $s.Record.CoverageLevels}},
        .reserved = 0,
        .provider_index = {{$s.Record.ProviderIndex}},
        .network_type = {{$s.Record.NetworkType}},
        .quality_rating = {{$s.Record.QualityRating}}
    }{{if not (last $i $n)}},{{end}}
{{- end}}
};

#define GENERATED_SERVICE_COUNT {{len .Catalog.Services}}
#define GENERATED_PROVIDER_COUNT {{len .Catalog.Providers}}

const ntrip_service_compact_t* get_generated_services(size_t* count) {
    *count = GENERATED_SERVICE_COUNT;
    return generated_services;
}

const char* get_provider_name(uint8_t provider_index) {
    if (provider_index >= GENERATED_PROVIDER_COUNT) return "Unknown";
    return provider_names[provider_index];
}
`))

var headerTmpl = template.Must(template.New("h").Funcs(funcs).Parse(`/**
 * GENERATED FILE - DO NOT EDIT
 * Generated on: {{.Generated}}
 * Database version: {{.Catalog.Version}}
 * Services: {{len .Catalog.Services}}
 */

#ifndef NTRIP_GENERATED_SERVICES_H
#define NTRIP_GENERATED_SERVICES_H

#include <stddef.h>
#include <stdint.h>

#define NTRIP_DATABASE_MAGIC        0x{{printf "%08X" .Magic}}
#define NTRIP_SCHEMA_VERSION_MAJOR  {{.SchemaMajor}}
#define NTRIP_SCHEMA_VERSION_MINOR  {{.SchemaMinor}}
#define NTRIP_DATABASE_VERSION      {{.Catalog.Version.Date}}
#define NTRIP_DATABASE_SEQUENCE     {{.Catalog.Version.Sequence}}
{{range .Flags}}
#define {{printf "%-26s" .Name}}  {{hex .Bit}}
{{- end}}

#define NTRIP_NETWORK_GOVERNMENT    1
#define NTRIP_NETWORK_COMMERCIAL    2
#define NTRIP_NETWORK_COMMUNITY     3

typedef struct {
    char hostname[{{.HostnameSize}}];
    uint16_t port;
    uint8_t flags;
    int16_t lat_min_deg100;
    int16_t lat_max_deg100;
    int16_t lon_min_deg100;
    int16_t lon_max_deg100;
    uint8_t coverage_levels : 5;
    uint8_t reserved : 3;
    uint8_t provider_index;
    uint8_t network_type;
    uint8_t quality_rating;
} __attribute__((packed)) ntrip_service_compact_t;  // {{.RecordSize}} bytes

/**
 * Get generated service database
 * @param count Output parameter for service count
 * @return Pointer to service array
 */
const ntrip_service_compact_t* get_generated_services(size_t* count);

/**
 * Get provider name by index
 * @param provider_index Provider index from service
 * @return Provider name string, "Unknown" when out of range
 */
const char* get_provider_name(uint8_t provider_index);

#endif // NTRIP_GENERATED_SERVICES_H
`))

type flagDef struct {
	Name string
	Bit  uint8
}

type cData struct {
	Catalog      *domain.Catalog
	Generated    string
	Header       string
	Magic        uint32
	SchemaMajor  uint16
	SchemaMinor  uint16
	HostnameSize int
	RecordSize   int
	Flags        []flagDef
}

// CSource renders the C translation unit and its header for cat.
func CSource(cat *domain.Catalog) (src, hdr []byte, err error) {
	data := cData{
		Catalog:      cat,
		Generated:    cat.CompiledAt.UTC().Format(time.RFC3339),
		Header:       CHeaderName,
		Magic:        domain.TableMagic,
		SchemaMajor:  domain.SchemaMajor,
		SchemaMinor:  domain.SchemaMinor,
		HostnameSize: domain.HostnameSize,
		RecordSize:   domain.CompactRecordSize,
	}
	for _, f := range flagNames {
		data.Flags = append(data.Flags, flagDef{Name: f.name, Bit: f.bit})
	}

	var c, h bytes.Buffer
	if err := sourceTmpl.Execute(&c, data); err != nil {
		return nil, nil, fmt.Errorf("render %s: %w", CSourceName, err)
	}
	if err := headerTmpl.Execute(&h, data); err != nil {
		return nil, nil, fmt.Errorf("render %s: %w", CHeaderName, err)
	}
	return c.Bytes(), h.Bytes(), nil
}

func flagExpr(flags uint8) string {
	names := FlagNames(flags)
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, " | ")
}

// cString quotes s as a C string literal. Go escapes are a subset of C's.
func cString(s string) string {
	return strconv.Quote(s)
}

// comment keeps s on a single line inside a // comment.
func comment(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func levelList(mask uint8) string {
	names := LevelNames(mask)
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
