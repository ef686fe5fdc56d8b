package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

// CatalogIndex holds the last good compiled catalog in memory.
// A failed compilation never reaches it, so readers always see a complete,
// consistent catalog or none at all.
type CatalogIndex struct {
	mu         sync.RWMutex
	catalog    *domain.Catalog
	byID       map[string]int // ID -> position in catalog.Services
	lastReload time.Time
}

// Match is a service covering a queried point.
type Match struct {
	Service    domain.CompiledService
	DistanceKm float64 // from the point to the centre of the service box
}

// NewCatalogIndex creates an empty index
func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{byID: make(map[string]int)}
}

// Replace swaps in a new catalog.
func (idx *CatalogIndex) Replace(cat *domain.Catalog) {
	byID := make(map[string]int, len(cat.Services))
	for i, s := range cat.Services {
		byID[s.ID] = i
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.catalog = cat
	idx.byID = byID
	idx.lastReload = time.Now()
}

// Current returns the loaded catalog, or nil before the first load.
// Callers must treat it as read-only.
func (idx *CatalogIndex) Current() *domain.Catalog {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.catalog
}

// Loaded reports whether a catalog is available.
func (idx *CatalogIndex) Loaded() bool {
	return idx.Current() != nil
}

// Service retrieves a compiled service by ID
func (idx *CatalogIndex) Service(id string) (domain.CompiledService, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.byID[id]
	if !ok {
		return domain.CompiledService{}, false
	}
	return idx.catalog.Services[i], true
}

// Covering returns the services of the current catalog whose box contains
// the point. See Covering.
func (idx *CatalogIndex) Covering(lat, lon float64) []Match {
	return Covering(idx.Current(), lat, lon)
}

// Covering returns the services of cat whose box contains the point, nearest
// box centre first. Ties keep catalog order.
func Covering(cat *domain.Catalog, lat, lon float64) []Match {
	if cat == nil {
		return nil
	}

	var out []Match
	for _, s := range cat.Services {
		if !s.Record.Covers(lat, lon) {
			continue
		}
		cLat, cLon := s.Record.Box().Center()
		out = append(out, Match{Service: s, DistanceKm: domain.Distance(lat, lon, cLat, cLon)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Count returns the number of services in the index
func (idx *CatalogIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.catalog == nil {
		return 0
	}
	return len(idx.catalog.Services)
}

// LastReload returns when the current catalog was swapped in.
func (idx *CatalogIndex) LastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
