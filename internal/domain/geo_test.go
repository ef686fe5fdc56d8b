package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxContains(t *testing.T) {
	australia := BoundingBox{LatMin: -45, LatMax: -10, LonMin: 110, LonMax: 160}
	assert.True(t, australia.Contains(-33.86, 151.2))
	assert.False(t, australia.Contains(48.85, 2.35))
	assert.True(t, australia.Contains(-45, 110), "edges are inclusive")

	fiji := BoundingBox{LatMin: -21, LatMax: -12, LonMin: 176, LonMax: -178}
	assert.True(t, fiji.CrossesAntimeridian())
	assert.True(t, fiji.Contains(-18, 178.4))
	assert.True(t, fiji.Contains(-18, -179))
	assert.False(t, fiji.Contains(-18, 0))
}

func TestBoundingBoxCenter(t *testing.T) {
	lat, lon := BoundingBox{LatMin: 0, LatMax: 10, LonMin: 20, LonMax: 40}.Center()
	assert.InDelta(t, 5, lat, 1e-9)
	assert.InDelta(t, 30, lon, 1e-9)

	_, lon = BoundingBox{LatMin: 0, LatMax: 10, LonMin: 170, LonMax: -170}.Center()
	assert.InDelta(t, 180, lon, 1e-9)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(10, 10, 10, 10), 1e-9)
	// Paris -> London, roughly 344 km.
	assert.InDelta(t, 344, Distance(48.8566, 2.3522, 51.5074, -0.1278), 5)
}

func TestCompactRecordCovers(t *testing.T) {
	rec := CompactServiceRecord{LatMinDeg100: 4700, LatMaxDeg100: 5500, LonMinDeg100: 500, LonMaxDeg100: 1500}
	assert.True(t, rec.Covers(50.1, 8.6))
	assert.False(t, rec.Covers(40, 8.6))
}
