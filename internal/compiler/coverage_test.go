package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

func TestClassifyDefaultWhenUndeclared(t *testing.T) {
	rec := typedRecord("a", "P")

	got := Classify(rec)
	assert.Equal(t, uint8(0b11111), got.Levels)
	assert.Equal(t, [5]uint8{3, 3, 3, 3, 3}, got.Qualities)
	assert.False(t, got.Declared)
}

func TestClassifyDeclared(t *testing.T) {
	tests := []struct {
		name   string
		levels domain.LevelQualities
		mask   uint8
		qual   [5]uint8
	}{
		{
			name:   "national and local",
			levels: domain.LevelQualities{National: 5, Local: 1},
			mask:   0b10100,
			qual:   [5]uint8{0, 0, 5, 0, 1},
		},
		{
			name:   "continental only",
			levels: domain.LevelQualities{Continental: 2},
			mask:   0b00001,
			qual:   [5]uint8{2, 0, 0, 0, 0},
		},
		{
			name:   "all levels",
			levels: domain.LevelQualities{Continental: 1, Regional: 2, National: 3, State: 4, Local: 5},
			mask:   0b11111,
			qual:   [5]uint8{1, 2, 3, 4, 5},
		},
		{
			name:   "declared but empty is not the default",
			levels: domain.LevelQualities{},
			mask:   0,
			qual:   [5]uint8{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := typedRecord("a", "P")
			h := tt.levels
			rec.Coverage.Hierarchical = &h

			got := Classify(rec)
			assert.Equal(t, tt.mask, got.Levels)
			assert.Equal(t, tt.qual, got.Qualities)
			assert.True(t, got.Declared)
			for _, level := range domain.CoverageLevels() {
				assert.Equal(t, got.Qualities[level] >= 1, got.Has(level), level.String())
			}
		})
	}
}
