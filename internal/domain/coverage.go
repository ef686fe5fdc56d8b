package domain

import "fmt"

// CoverageLevel is a tier of the hierarchical coverage model, ordered from
// the coarsest to the finest.
type CoverageLevel uint8

const (
	LevelContinental CoverageLevel = iota
	LevelRegional
	LevelNational
	LevelState
	LevelLocal
)

// CoverageLevelCount is the number of hierarchical levels (and mask bits).
const CoverageLevelCount = 5

// AllLevelsMask has one bit set per coverage level.
const AllLevelsMask uint8 = 1<<CoverageLevelCount - 1

// DefaultLevelQuality is assigned to every level of a service that declares
// no hierarchical coverage.
const DefaultLevelQuality = 3

var levelNames = [CoverageLevelCount]string{"continental", "regional", "national", "state", "local"}

// CoverageLevels returns the levels in bit order.
func CoverageLevels() []CoverageLevel {
	return []CoverageLevel{LevelContinental, LevelRegional, LevelNational, LevelState, LevelLocal}
}

// String returns the YAML key of the level.
func (l CoverageLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseCoverageLevel maps a YAML key to its level.
func ParseCoverageLevel(name string) (CoverageLevel, bool) {
	for i, n := range levelNames {
		if n == name {
			return CoverageLevel(i), true
		}
	}
	return 0, false
}

// CoverageAssignment is the per-service result of coverage classification.
type CoverageAssignment struct {
	// Levels has bit i set when the service covers level i.
	Levels uint8

	// Qualities holds the raw per-level score, indexed by CoverageLevel.
	Qualities [CoverageLevelCount]uint8

	// Declared is false when Levels/Qualities come from the default.
	Declared bool
}

// Has reports whether the assignment covers level.
func (c CoverageAssignment) Has(level CoverageLevel) bool {
	return c.Levels&(1<<level) != 0
}
