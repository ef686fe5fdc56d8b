package emit

import (
	"encoding/json"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// ServiceView is the JSON form of one compiled service, decoded back from
// its compact record so consumers see exactly what was encoded.
type ServiceView struct {
	ID             string             `json:"id"`
	Source         string             `json:"source,omitempty"`
	Provider       string             `json:"provider"`
	ProviderIndex  uint8              `json:"provider_index"`
	Hostname       string             `json:"hostname"`
	Port           uint16             `json:"port"`
	Flags          uint8              `json:"flags"`
	FlagNames      []string           `json:"flag_names"`
	BoundingBox    domain.BoundingBox `json:"bounding_box"`
	CoverageLevels uint8              `json:"coverage_levels"`
	Levels         []string           `json:"levels"`
	NetworkType    uint8              `json:"network_type"`
	QualityRating  uint8              `json:"quality_rating"`
	DistanceKm     *float64           `json:"distance_km,omitempty"`
}

// ProviderView is one provider dictionary entry.
type ProviderView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// CatalogView is the JSON form of a whole catalog.
type CatalogView struct {
	ID         string              `json:"id"`
	Version    string              `json:"version"`
	CompiledAt time.Time           `json:"compiled_at"`
	Services   []ServiceView       `json:"services"`
	Providers  []ProviderView      `json:"providers"`
	Warnings   []domain.Diagnostic `json:"warnings"`
}

// NewServiceView decodes s for display.
func NewServiceView(cat *domain.Catalog, s domain.CompiledService) ServiceView {
	r := s.Record
	return ServiceView{
		ID:             s.ID,
		Source:         s.Source,
		Provider:       cat.ProviderName(r.ProviderIndex),
		ProviderIndex:  r.ProviderIndex,
		Hostname:       r.HostnameString(),
		Port:           r.Port,
		Flags:          r.Flags,
		FlagNames:      FlagNames(r.Flags),
		BoundingBox:    r.Box(),
		CoverageLevels: r.CoverageLevels,
		Levels:         LevelNames(r.CoverageLevels),
		NetworkType:    r.NetworkType,
		QualityRating:  r.QualityRating,
	}
}

// Providers lists the provider dictionary in index order.
func Providers(cat *domain.Catalog) []ProviderView {
	out := make([]ProviderView, len(cat.Providers))
	for i, name := range cat.Providers {
		out[i] = ProviderView{Index: i, Name: name}
	}
	return out
}

// NewCatalogView builds the JSON view of cat.
func NewCatalogView(cat *domain.Catalog) CatalogView {
	v := CatalogView{
		ID:         cat.ID.String(),
		Version:    cat.Version.String(),
		CompiledAt: cat.CompiledAt,
		Services:   make([]ServiceView, len(cat.Services)),
		Providers:  Providers(cat),
		Warnings:   cat.Warnings,
	}
	if v.Warnings == nil {
		v.Warnings = []domain.Diagnostic{}
	}
	for i, s := range cat.Services {
		v.Services[i] = NewServiceView(cat, s)
	}
	return v
}

// ProvidersJSON renders the provider dictionary.
func ProvidersJSON(cat *domain.Catalog) ([]byte, error) {
	return json.MarshalIndent(Providers(cat), "", "  ")
}

// CatalogJSON renders the full catalog view.
func CatalogJSON(cat *domain.Catalog) ([]byte, error) {
	return json.MarshalIndent(NewCatalogView(cat), "", "  ")
}

// FlagNames lists the names of the bits set in flags.
func FlagNames(flags uint8) []string {
	out := []string{}
	for _, f := range flagNames {
		if flags&f.bit != 0 {
			out = append(out, f.name)
		}
	}
	return out
}

// LevelNames lists the coverage levels set in mask.
func LevelNames(mask uint8) []string {
	out := []string{}
	for _, l := range domain.CoverageLevels() {
		if mask&(1<<l) != 0 {
			out = append(out, l.String())
		}
	}
	return out
}
