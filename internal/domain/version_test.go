package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextVersion(t *testing.T) {
	now := time.Date(2024, 11, 30, 10, 0, 0, 0, time.UTC)

	first := NextVersion(nil, now)
	assert.Equal(t, DatabaseVersion{Date: 20241130}, first)

	second := NextVersion(&first, now)
	assert.Equal(t, DatabaseVersion{Date: 20241130, Sequence: 1}, second)

	nextDay := NextVersion(&second, now.Add(24*time.Hour))
	assert.Equal(t, DatabaseVersion{Date: 20241201}, nextDay)

	saturated := NextVersion(&DatabaseVersion{Date: 20241130, Sequence: MaxSequence}, now)
	assert.Equal(t, uint8(MaxSequence), saturated.Sequence)
}

func TestDatabaseVersionStringParse(t *testing.T) {
	v := DatabaseVersion{Date: 20241130, Sequence: 2}
	assert.Equal(t, "20241130.02", v.String())

	parsed, err := ParseDatabaseVersion(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)

	_, err = ParseDatabaseVersion("2024-11-30")
	assert.Error(t, err)
	_, err = ParseDatabaseVersion("20241130.ab")
	assert.Error(t, err)
}

func TestDatabaseVersionLess(t *testing.T) {
	a := DatabaseVersion{Date: 20241130, Sequence: 5}
	b := DatabaseVersion{Date: 20241201}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, DatabaseVersion{Date: 20241130, Sequence: 1}.Less(a))
}

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(DatabaseVersion{Date: 20241130, Sequence: 2}, 12, 5)
	data := h.AppendBinary(nil)
	require.Len(t, data, HeaderSize)

	back, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, h, back)
	assert.NoError(t, back.Validate())
}

func TestHeaderValidate(t *testing.T) {
	valid := NewHeader(DatabaseVersion{Date: 20241130}, 1, 1)

	tests := []struct {
		name   string
		mutate func(h *Header)
		target error
	}{
		{name: "bad magic", mutate: func(h *Header) { h.Magic = 0x12345678 }, target: ErrInvalidMagic},
		{name: "schema zero", mutate: func(h *Header) { h.SchemaMajor = 0 }, target: ErrIncompatibleSchema},
		{name: "sequence too high", mutate: func(h *Header) { h.Version.Sequence = 100 }, target: ErrInvalidHeader},
		{name: "no services", mutate: func(h *Header) { h.ServiceCount = 0 }, target: ErrInvalidHeader},
		{name: "too many services", mutate: func(h *Header) { h.ServiceCount = MaxServiceCount + 1 }, target: ErrInvalidHeader},
		{name: "record size", mutate: func(h *Header) { h.RecordSize = 52 }, target: ErrIncompatibleSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid
			tt.mutate(&h)
			err := h.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	base := NewHeader(DatabaseVersion{Date: 20241130}, 1, 1)

	c, err := CheckCompatibility(base)
	require.NoError(t, err)
	assert.Equal(t, Compatible, c)

	newerMinor := base
	newerMinor.SchemaMinor = SchemaMinor + 1
	c, err = CheckCompatibility(newerMinor)
	require.NoError(t, err)
	assert.Equal(t, BackwardOnly, c)

	newerMajor := base
	newerMajor.SchemaMajor = SchemaMajor + 1
	c, err = CheckCompatibility(newerMajor)
	assert.ErrorIs(t, err, ErrIncompatibleSchema)
	assert.Equal(t, UpgradeNeeded, c)

	badMagic := base
	badMagic.Magic = 0
	c, err = CheckCompatibility(badMagic)
	assert.ErrorIs(t, err, ErrInvalidMagic)
	assert.Equal(t, Incompatible, c)
}
