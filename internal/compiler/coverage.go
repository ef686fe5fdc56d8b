package compiler

import "github.com/MrSnakeDoc/atlas/internal/domain"

// Classify maps the declared hierarchical qualities of rec onto the 5-bit
// coverage mask. Bit i is set iff the quality at level i is at least 1.
//
// A record without any hierarchical map gets every level at quality
// domain.DefaultLevelQuality. A declared map with absent levels is not the
// same thing: those levels are 0 and their bits stay clear.
func Classify(rec *domain.ServiceRecord) domain.CoverageAssignment {
	h := rec.Coverage.Hierarchical
	if h == nil {
		a := domain.CoverageAssignment{Levels: domain.AllLevelsMask}
		for i := range a.Qualities {
			a.Qualities[i] = domain.DefaultLevelQuality
		}
		return a
	}

	a := domain.CoverageAssignment{Declared: true}
	for _, level := range domain.CoverageLevels() {
		q := clampQuality(h.At(level))
		a.Qualities[level] = q
		if q >= 1 {
			a.Levels |= 1 << level
		}
	}
	return a
}

func clampQuality(q int) uint8 {
	switch {
	case q < 0:
		return 0
	case q > 5:
		return 5
	default:
		return uint8(q)
	}
}
