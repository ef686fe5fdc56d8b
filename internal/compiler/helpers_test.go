package compiler

import (
	"github.com/MrSnakeDoc/atlas/internal/domain"
)

func typedRecord(id, provider string) *domain.ServiceRecord {
	return &domain.ServiceRecord{
		ID:       id,
		Provider: provider,
		Country:  "DE",
		Endpoints: []domain.Endpoint{
			{Hostname: "caster.example.de", Port: 2101, SSL: false},
		},
		Coverage: domain.Coverage{
			BoundingBox: domain.BoundingBox{LatMin: 47.27, LatMax: 55.06, LonMin: 5.87, LonMax: 15.04},
		},
		Authentication: domain.Authentication{Method: domain.AuthBasic, Required: true},
		Quality:        domain.Quality{ReliabilityRating: 4, AccuracyRating: 4, NetworkType: domain.NetworkGovernment},
		Source:         id + ".yaml",
	}
}

func sourceRecord(id, provider string) domain.SourceRecord {
	return domain.SourceRecord{
		Source: id + ".yaml",
		Fields: map[string]any{
			"id":       id,
			"provider": provider,
			"country":  "DE",
			"endpoints": []any{
				map[string]any{"hostname": "caster.example.de", "port": 2101, "ssl": false},
			},
			"coverage": map[string]any{
				"bounding_box": map[string]any{"lat_min": 47.27, "lat_max": 55.06, "lon_min": 5.87, "lon_max": 15.04},
			},
			"authentication": map[string]any{"required": true, "method": "basic"},
			"quality": map[string]any{
				"reliability_rating": 4,
				"accuracy_rating":    4,
				"network_type":       "government",
			},
		},
	}
}
