package domain

import "math"

const earthRadiusKm = 6371.0

// CrossesAntimeridian reports whether the box wraps across ±180°.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.LonMin > b.LonMax
}

// Contains reports whether the point lies inside the box (edges included).
func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.LatMin || lat > b.LatMax {
		return false
	}
	if b.CrossesAntimeridian() {
		return lon >= b.LonMin || lon <= b.LonMax
	}
	return lon >= b.LonMin && lon <= b.LonMax
}

// Center returns the midpoint of the box, wrapping across the antimeridian.
func (b BoundingBox) Center() (lat, lon float64) {
	lat = (b.LatMin + b.LatMax) / 2
	if !b.CrossesAntimeridian() {
		return lat, (b.LonMin + b.LonMax) / 2
	}
	lon = (b.LonMin + b.LonMax + 360) / 2
	if lon > 180 {
		lon -= 360
	}
	return lat, lon
}

// Covers reports whether the compact record's decoded box contains the point.
func (c CompactServiceRecord) Covers(lat, lon float64) bool {
	return c.Box().Contains(lat, lon)
}

// Distance returns the great-circle distance in kilometres.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
