package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxProviders is the size of the 8-bit provider index space.
const MaxProviders = 256

// ProviderDictionary maps provider names to dense indices.
//
// Names are appended in first-seen order while the dictionary is built and
// the dictionary is frozen before any record is encoded.
type ProviderDictionary struct {
	names  []string
	index  map[string]uint8
	frozen bool
}

// NewProviderDictionary returns an empty, writable dictionary.
func NewProviderDictionary() *ProviderDictionary {
	return &ProviderDictionary{index: make(map[string]uint8)}
}

// Add returns the index of name, assigning the next free one on first sight.
func (d *ProviderDictionary) Add(name string) (uint8, error) {
	if d.frozen {
		return 0, fmt.Errorf("provider dictionary is frozen")
	}
	if idx, ok := d.index[name]; ok {
		return idx, nil
	}
	if len(d.names) >= MaxProviders {
		return 0, fmt.Errorf("%w: %q would be provider #%d (max %d)",
			ErrTooManyProviders, name, len(d.names)+1, MaxProviders)
	}
	idx := uint8(len(d.names))
	d.names = append(d.names, name)
	d.index[name] = idx
	return idx, nil
}

// Freeze forbids further additions.
func (d *ProviderDictionary) Freeze() { d.frozen = true }

// Frozen reports whether Freeze was called.
func (d *ProviderDictionary) Frozen() bool { return d.frozen }

// Index looks up the index assigned to name.
func (d *ProviderDictionary) Index(name string) (uint8, bool) {
	idx, ok := d.index[name]
	return idx, ok
}

// Name returns the provider at idx.
func (d *ProviderDictionary) Name(idx uint8) (string, bool) {
	if int(idx) >= len(d.names) {
		return "", false
	}
	return d.names[idx], true
}

// Len returns the number of providers.
func (d *ProviderDictionary) Len() int { return len(d.names) }

// Names returns a copy of the ordered provider names (index = position).
func (d *ProviderDictionary) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Diagnostic is a non-blocking finding surfaced to operators.
type Diagnostic struct {
	RecordID string `json:"record_id"`
	Source   string `json:"source,omitempty"`
	Message  string `json:"message"`
}

// CompiledService pairs a compact record with the identity it was built from.
type CompiledService struct {
	ID       string               `json:"id"`
	Source   string               `json:"source,omitempty"`
	Provider string               `json:"provider"`
	Record   CompactServiceRecord `json:"-"`
}

// Catalog is the output of one successful compilation.
type Catalog struct {
	ID         uuid.UUID         `json:"id"`
	Version    DatabaseVersion   `json:"version"`
	CompiledAt time.Time         `json:"compiled_at"`
	Services   []CompiledService `json:"services"`
	Providers  []string          `json:"providers"`
	Warnings   []Diagnostic      `json:"warnings,omitempty"`
}

// Service returns the compiled service with the given id.
func (c *Catalog) Service(id string) (CompiledService, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return CompiledService{}, false
}

// ProviderName resolves the provider index of a compact record.
func (c *Catalog) ProviderName(idx uint8) string {
	if int(idx) < len(c.Providers) {
		return c.Providers[idx]
	}
	return "Unknown"
}

// Header builds the binary table header describing c.
func (c *Catalog) Header() Header {
	return NewHeader(c.Version, len(c.Services), len(c.Providers))
}
