package domain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Flag bits of CompactServiceRecord.Flags. The values are part of the binary
// contract shared with the embedded runtime.
const (
	FlagSSL           uint8 = 1 << 0
	FlagAuthBasic     uint8 = 1 << 1
	FlagAuthDigest    uint8 = 1 << 2
	FlagRequiresReg   uint8 = 1 << 3
	FlagFreeAccess    uint8 = 1 << 4
	FlagGlobalService uint8 = 1 << 5
)

const (
	// HostnameSize is the fixed hostname field width, NUL terminator included.
	HostnameSize = 32
	// MaxHostnameLen is the longest hostname that fits the compact record.
	MaxHostnameLen = HostnameSize - 1
	// CompactRecordSize is the packed little-endian size of one record.
	CompactRecordSize = 47
	// CentiDegreeScale is the fixed-point scale of compact coordinates.
	CentiDegreeScale = 100
)

// CompactServiceRecord is the fixed-width representation of a service
// consumed by the embedded runtime.
//
// Layout (little-endian, packed):
//
//	0  hostname[32]   NUL padded
//	32 port           uint16
//	34 flags          uint8
//	35 lat_min_deg100 int16
//	37 lat_max_deg100 int16
//	39 lon_min_deg100 int16
//	41 lon_max_deg100 int16
//	43 coverage       uint8 (bits 0-4, bits 5-7 reserved)
//	44 provider_index uint8
//	45 network_type   uint8
//	46 quality_rating uint8
type CompactServiceRecord struct {
	Hostname       [HostnameSize]byte
	Port           uint16
	Flags          uint8
	LatMinDeg100   int16
	LatMaxDeg100   int16
	LonMinDeg100   int16
	LonMaxDeg100   int16
	CoverageLevels uint8
	ProviderIndex  uint8
	NetworkType    uint8
	QualityRating  uint8
}

// HostnameString returns the hostname without its NUL padding.
func (c CompactServiceRecord) HostnameString() string {
	if i := bytes.IndexByte(c.Hostname[:], 0); i >= 0 {
		return string(c.Hostname[:i])
	}
	return string(c.Hostname[:])
}

// HasFlag reports whether every bit of flag is set.
func (c CompactServiceRecord) HasFlag(flag uint8) bool {
	return c.Flags&flag == flag
}

// Box decodes the fixed-point bounding box back to degrees.
func (c CompactServiceRecord) Box() BoundingBox {
	return BoundingBox{
		LatMin: FromCentiDegrees(c.LatMinDeg100),
		LatMax: FromCentiDegrees(c.LatMaxDeg100),
		LonMin: FromCentiDegrees(c.LonMinDeg100),
		LonMax: FromCentiDegrees(c.LonMaxDeg100),
	}
}

// MarshalBinary encodes the record in its packed wire layout.
func (c CompactServiceRecord) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, CompactRecordSize))
}

// AppendBinary appends the packed wire layout of the record to b.
func (c CompactServiceRecord) AppendBinary(b []byte) ([]byte, error) {
	if c.CoverageLevels&^AllLevelsMask != 0 {
		return nil, fmt.Errorf("coverage levels 0b%08b use reserved bits", c.CoverageLevels)
	}
	b = append(b, c.Hostname[:]...)
	b = binary.LittleEndian.AppendUint16(b, c.Port)
	b = append(b, c.Flags)
	b = binary.LittleEndian.AppendUint16(b, uint16(c.LatMinDeg100))
	b = binary.LittleEndian.AppendUint16(b, uint16(c.LatMaxDeg100))
	b = binary.LittleEndian.AppendUint16(b, uint16(c.LonMinDeg100))
	b = binary.LittleEndian.AppendUint16(b, uint16(c.LonMaxDeg100))
	b = append(b, c.CoverageLevels, c.ProviderIndex, c.NetworkType, c.QualityRating)
	return b, nil
}

// UnmarshalBinary decodes a packed record produced by MarshalBinary.
func (c *CompactServiceRecord) UnmarshalBinary(data []byte) error {
	if len(data) != CompactRecordSize {
		return fmt.Errorf("compact record: want %d bytes, got %d", CompactRecordSize, len(data))
	}
	copy(c.Hostname[:], data[0:HostnameSize])
	c.Port = binary.LittleEndian.Uint16(data[32:34])
	c.Flags = data[34]
	c.LatMinDeg100 = int16(binary.LittleEndian.Uint16(data[35:37]))
	c.LatMaxDeg100 = int16(binary.LittleEndian.Uint16(data[37:39]))
	c.LonMinDeg100 = int16(binary.LittleEndian.Uint16(data[39:41]))
	c.LonMaxDeg100 = int16(binary.LittleEndian.Uint16(data[41:43]))
	c.CoverageLevels = data[43]
	c.ProviderIndex = data[44]
	c.NetworkType = data[45]
	c.QualityRating = data[46]
	return nil
}

// ToCentiDegrees converts degrees to the compact fixed-point scale.
//
// Rounding is half away from zero, applied to the shortest decimal
// representation of deg, so 10.005 becomes 1001 even though the float64
// nearest to 10.005 is slightly below it. The conversion is lossy by at most
// 0.005 degrees. ok is false when deg is not finite or does not fit an int16.
func ToCentiDegrees(deg float64) (v int16, ok bool) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, false
	}

	s := strconv.FormatFloat(math.Abs(deg), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac += "000"

	whole, err := strconv.ParseInt(intPart+frac[:2], 10, 64)
	if err != nil {
		return 0, false
	}
	if frac[2] >= '5' {
		whole++
	}
	if deg < 0 {
		whole = -whole
	}
	if whole < math.MinInt16 || whole > math.MaxInt16 {
		return 0, false
	}
	return int16(whole), true
}

// FromCentiDegrees converts a fixed-point coordinate back to degrees.
func FromCentiDegrees(v int16) float64 {
	return float64(v) / CentiDegreeScale
}
