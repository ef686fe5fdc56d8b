package emit

import (
	"fmt"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

const (
	BinaryName        = "atlas.bin"
	ProvidersJSONName = "providers.json"
	CatalogJSONName   = "catalog.json"
)

// Artifact is one rendered output file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Artifacts renders every output of a compiled catalog, in a fixed order.
func Artifacts(cat *domain.Catalog) ([]Artifact, error) {
	src, hdr, err := CSource(cat)
	if err != nil {
		return nil, err
	}
	bin, err := Binary(cat)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", BinaryName, err)
	}
	providers, err := ProvidersJSON(cat)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", ProvidersJSONName, err)
	}
	full, err := CatalogJSON(cat)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", CatalogJSONName, err)
	}

	return []Artifact{
		{Name: CSourceName, ContentType: "text/x-csrc; charset=utf-8", Data: src},
		{Name: CHeaderName, ContentType: "text/x-chdr; charset=utf-8", Data: hdr},
		{Name: BinaryName, ContentType: "application/octet-stream", Data: bin},
		{Name: ProvidersJSONName, ContentType: "application/json", Data: providers},
		{Name: CatalogJSONName, ContentType: "application/json", Data: full},
	}, nil
}
