package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCentiDegrees(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		want int16
	}{
		{name: "half rounds up", deg: 10.005, want: 1001},
		{name: "negative half rounds away from zero", deg: -10.005, want: -1001},
		{name: "below half rounds down", deg: 10.004, want: 1000},
		{name: "exact", deg: 20.0, want: 2000},
		{name: "negative exact", deg: -5.0, want: -500},
		{name: "two decimals", deg: 47.37, want: 4737},
		{name: "many decimals", deg: 8.123456, want: 812},
		{name: "zero", deg: 0, want: 0},
		{name: "latitude max", deg: 90, want: 9000},
		{name: "longitude min", deg: -180, want: -18000},
		{name: "tiny", deg: 0.0049, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToCentiDegrees(tt.deg)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCentiDegreesOutOfRange(t *testing.T) {
	for _, deg := range []float64{400, -400, math.NaN(), math.Inf(1)} {
		_, ok := ToCentiDegrees(deg)
		assert.False(t, ok, "deg=%v", deg)
	}
}

func TestCentiDegreesRoundTripBound(t *testing.T) {
	for deg := -180.0; deg <= 180.0; deg += 0.0137 {
		v, ok := ToCentiDegrees(deg)
		require.True(t, ok)
		assert.LessOrEqual(t, math.Abs(FromCentiDegrees(v)-deg), 0.005+1e-9, "deg=%v", deg)
	}
}

func TestCompactRecordBinaryLayout(t *testing.T) {
	var rec CompactServiceRecord
	copy(rec.Hostname[:], "rtk2go.com")
	rec.Port = 2101
	rec.Flags = FlagSSL | FlagFreeAccess
	rec.LatMinDeg100 = -4500
	rec.LatMaxDeg100 = -1000
	rec.LonMinDeg100 = 11000
	rec.LonMaxDeg100 = 16000
	rec.CoverageLevels = 0b10101
	rec.ProviderIndex = 7
	rec.NetworkType = 3
	rec.QualityRating = 4

	data, err := rec.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, CompactRecordSize)

	assert.Equal(t, "rtk2go.com", string(data[:10]))
	assert.Equal(t, byte(0), data[10])
	assert.Equal(t, []byte{0x35, 0x08}, data[32:34]) // 2101
	assert.Equal(t, FlagSSL|FlagFreeAccess, data[34])
	assert.Equal(t, []byte{0x6C, 0xEE}, data[35:37]) // -4500
	assert.Equal(t, byte(0b10101), data[43])
	assert.Equal(t, []byte{7, 3, 4}, data[44:47])

	var back CompactServiceRecord
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, rec, back)
	assert.Equal(t, "rtk2go.com", back.HostnameString())
}

func TestCompactRecordRejectsReservedCoverageBits(t *testing.T) {
	rec := CompactServiceRecord{CoverageLevels: 0b100000}
	_, err := rec.MarshalBinary()
	assert.Error(t, err)
}

func TestCompactRecordUnmarshalWrongSize(t *testing.T) {
	var rec CompactServiceRecord
	assert.Error(t, rec.UnmarshalBinary(make([]byte, CompactRecordSize-1)))
}

func TestHostnameStringFullWidth(t *testing.T) {
	var rec CompactServiceRecord
	host := "abcdefghijabcdefghijabcdefghij1" // 31 bytes
	copy(rec.Hostname[:], host)
	assert.Equal(t, host, rec.HostnameString())
}
