package domain

// ServiceRecord is the typed form of one NTRIP service definition.
//
// It is only ever built from a SourceRecord that passed validation, so the
// compiler can treat every field as well-formed.
type ServiceRecord struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the unique lowercase identifier ([a-z0-9_]+).
	ID string `yaml:"id"`

	// Provider is the free-text organization name.
	// Example: "Geoscience Australia"
	Provider string `yaml:"provider"`

	// Country is an ISO-like country or region code.
	// "GLOBAL" marks a worldwide service.
	Country string `yaml:"country"`

	// ─────────────────────────────
	// Connection
	// ─────────────────────────────

	// Endpoints lists the caster endpoints in declaration order.
	// Only the first one survives compaction.
	Endpoints []Endpoint `yaml:"endpoints"`

	// ─────────────────────────────
	// Coverage
	// ─────────────────────────────

	Coverage Coverage `yaml:"coverage"`

	// ─────────────────────────────
	// Access & quality
	// ─────────────────────────────

	Authentication Authentication `yaml:"authentication"`
	Quality        Quality        `yaml:"quality"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// Source identifies where the record was read from (relative file path).
	// Used for diagnostics only.
	Source string `yaml:"-"`
}

// Endpoint is a single caster address.
type Endpoint struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	SSL      bool   `yaml:"ssl"`
}

// Coverage groups the geographic description of a service.
type Coverage struct {
	BoundingBox BoundingBox `yaml:"bounding_box"`

	// Hierarchical is nil when the record declares no tiered coverage at all.
	// A declared map with missing levels decodes those levels as 0.
	Hierarchical *LevelQualities `yaml:"hierarchical,omitempty"`
}

// BoundingBox is expressed in degrees. LonMin > LonMax denotes a region
// crossing the antimeridian.
type BoundingBox struct {
	LatMin float64 `yaml:"lat_min" json:"lat_min"`
	LatMax float64 `yaml:"lat_max" json:"lat_max"`
	LonMin float64 `yaml:"lon_min" json:"lon_min"`
	LonMax float64 `yaml:"lon_max" json:"lon_max"`
}

// LevelQualities holds the declared 0..5 quality per coverage level.
type LevelQualities struct {
	Continental int `yaml:"continental"`
	Regional    int `yaml:"regional"`
	National    int `yaml:"national"`
	State       int `yaml:"state"`
	Local       int `yaml:"local"`
}

// At returns the quality declared for level, 0 for an unknown level.
func (q LevelQualities) At(level CoverageLevel) int {
	switch level {
	case LevelContinental:
		return q.Continental
	case LevelRegional:
		return q.Regional
	case LevelNational:
		return q.National
	case LevelState:
		return q.State
	case LevelLocal:
		return q.Local
	default:
		return 0
	}
}

// Authentication describes how clients log in to the caster.
type Authentication struct {
	Method               AuthMethod `yaml:"method"`
	Required             bool       `yaml:"required"`
	RegistrationRequired bool       `yaml:"registration_required"`
	RegistrationURL      string     `yaml:"registration_url,omitempty"`
	TermsURL             string     `yaml:"terms_url,omitempty"`
}

// Quality carries the editorial ratings of a service.
type Quality struct {
	ReliabilityRating int         `yaml:"reliability_rating"`
	AccuracyRating    int         `yaml:"accuracy_rating"`
	NetworkType       NetworkType `yaml:"network_type"`
}

// AuthMethod is the caster authentication scheme.
type AuthMethod string

const (
	AuthNone   AuthMethod = "none"
	AuthBasic  AuthMethod = "basic"
	AuthDigest AuthMethod = "digest"
)

// NetworkType classifies the operator of a service.
type NetworkType string

const (
	NetworkGovernment NetworkType = "government"
	NetworkCommercial NetworkType = "commercial"
	NetworkCommunity  NetworkType = "community"
)

// Code returns the compact network-type code, or 0 if the type is unknown.
func (n NetworkType) Code() uint8 {
	switch n {
	case NetworkGovernment:
		return 1
	case NetworkCommercial:
		return 2
	case NetworkCommunity:
		return 3
	default:
		return 0
	}
}

// CountryGlobal marks services operating worldwide.
const CountryGlobal = "GLOBAL"

// SourceRecord is a service definition as decoded from its source document,
// before any typing. Fields holds the `service:` mapping, Examples the optional
// `example_mountpoints` list.
type SourceRecord struct {
	Source   string
	Fields   map[string]any
	Examples []any
}

// ID returns the record identifier if it is a string, "" otherwise.
func (s SourceRecord) ID() string {
	if id, ok := s.Fields["id"].(string); ok {
		return id
	}
	return ""
}
