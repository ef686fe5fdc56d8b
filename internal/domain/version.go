package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// TableMagic starts every binary catalog ("NTRA").
	TableMagic uint32 = 0x4E545241

	// SchemaMajor changes on breaking layout changes.
	SchemaMajor uint16 = 1
	// SchemaMinor changes on backward compatible additions.
	SchemaMinor uint16 = 1

	// HeaderSize is the packed little-endian size of Header.
	HeaderSize = 20

	// MaxSequence is the last sequence number allowed within one day.
	MaxSequence = 99
	// MaxServiceCount bounds the number of services in one table.
	MaxServiceCount = 10000
)

var (
	ErrInvalidMagic       = errors.New("invalid table magic")
	ErrIncompatibleSchema = errors.New("incompatible schema version")
	ErrInvalidHeader      = errors.New("invalid table header")
)

// DatabaseVersion identifies one compiled catalog: the compilation day and a
// per-day sequence number.
type DatabaseVersion struct {
	Date     uint32 `json:"date"`     // YYYYMMDD
	Sequence uint8  `json:"sequence"` // 0..99
}

// String formats the version as YYYYMMDD.SS.
func (v DatabaseVersion) String() string {
	return fmt.Sprintf("%08d.%02d", v.Date, v.Sequence)
}

// Less orders versions chronologically.
func (v DatabaseVersion) Less(o DatabaseVersion) bool {
	if v.Date != o.Date {
		return v.Date < o.Date
	}
	return v.Sequence < o.Sequence
}

// ParseDatabaseVersion parses the YYYYMMDD.SS form produced by String.
func ParseDatabaseVersion(s string) (DatabaseVersion, error) {
	if len(s) != 11 || s[8] != '.' {
		return DatabaseVersion{}, fmt.Errorf("invalid database version %q", s)
	}
	date, err := strconv.ParseUint(s[:8], 10, 32)
	if err != nil {
		return DatabaseVersion{}, fmt.Errorf("invalid database version %q: %w", s, err)
	}
	seq, err := strconv.ParseUint(s[9:], 10, 8)
	if err != nil || seq > MaxSequence {
		return DatabaseVersion{}, fmt.Errorf("invalid database version sequence %q", s)
	}
	return DatabaseVersion{Date: uint32(date), Sequence: uint8(seq)}, nil
}

// VersionDate returns the YYYYMMDD form of t in UTC.
func VersionDate(t time.Time) uint32 {
	t = t.UTC()
	return uint32(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// NextVersion returns the version following prev for a compilation at now.
// A new day restarts the sequence at 0; the sequence saturates at MaxSequence.
func NextVersion(prev *DatabaseVersion, now time.Time) DatabaseVersion {
	date := VersionDate(now)
	if prev == nil || prev.Date != date {
		return DatabaseVersion{Date: date}
	}
	seq := prev.Sequence
	if seq < MaxSequence {
		seq++
	}
	return DatabaseVersion{Date: date, Sequence: seq}
}

// Header prefixes the binary catalog table.
type Header struct {
	Magic         uint32
	SchemaMajor   uint16
	SchemaMinor   uint16
	Version       DatabaseVersion
	ServiceCount  uint16
	ProviderCount uint16
	RecordSize    uint16
}

// NewHeader builds a header for the current schema.
func NewHeader(v DatabaseVersion, services, providers int) Header {
	return Header{
		Magic:         TableMagic,
		SchemaMajor:   SchemaMajor,
		SchemaMinor:   SchemaMinor,
		Version:       v,
		ServiceCount:  uint16(services),
		ProviderCount: uint16(providers),
		RecordSize:    CompactRecordSize,
	}
}

// AppendBinary appends the packed header to b.
func (h Header) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, h.Magic)
	b = binary.LittleEndian.AppendUint16(b, h.SchemaMajor)
	b = binary.LittleEndian.AppendUint16(b, h.SchemaMinor)
	b = binary.LittleEndian.AppendUint32(b, h.Version.Date)
	b = append(b, h.Version.Sequence, 0)
	b = binary.LittleEndian.AppendUint16(b, h.ServiceCount)
	b = binary.LittleEndian.AppendUint16(b, h.ProviderCount)
	b = binary.LittleEndian.AppendUint16(b, h.RecordSize)
	return b
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(data), HeaderSize)
	}
	return Header{
		Magic:       binary.LittleEndian.Uint32(data[0:4]),
		SchemaMajor: binary.LittleEndian.Uint16(data[4:6]),
		SchemaMinor: binary.LittleEndian.Uint16(data[6:8]),
		Version: DatabaseVersion{
			Date:     binary.LittleEndian.Uint32(data[8:12]),
			Sequence: data[12],
		},
		ServiceCount:  binary.LittleEndian.Uint16(data[14:16]),
		ProviderCount: binary.LittleEndian.Uint16(data[16:18]),
		RecordSize:    binary.LittleEndian.Uint16(data[18:20]),
	}, nil
}

// Validate checks the structural sanity of a header.
func (h Header) Validate() error {
	if h.Magic != TableMagic {
		return fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, h.Magic)
	}
	if h.SchemaMajor == 0 {
		return fmt.Errorf("%w: schema major 0", ErrIncompatibleSchema)
	}
	if h.Version.Sequence > MaxSequence {
		return fmt.Errorf("%w: sequence %d > %d", ErrInvalidHeader, h.Version.Sequence, MaxSequence)
	}
	if h.ServiceCount == 0 || h.ServiceCount > MaxServiceCount {
		return fmt.Errorf("%w: service count %d", ErrInvalidHeader, h.ServiceCount)
	}
	if h.ProviderCount > MaxProviders {
		return fmt.Errorf("%w: provider count %d", ErrInvalidHeader, h.ProviderCount)
	}
	if h.RecordSize != CompactRecordSize {
		return fmt.Errorf("%w: record size %d", ErrIncompatibleSchema, h.RecordSize)
	}
	return nil
}

// Compatibility describes whether a reader can consume a table.
type Compatibility int

const (
	Compatible Compatibility = iota
	BackwardOnly
	UpgradeNeeded
	Incompatible
)

func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "Database fully compatible with library"
	case BackwardOnly:
		return "Database newer than library - some features may be unavailable"
	case UpgradeNeeded:
		return "Library too old for database - please upgrade"
	default:
		return "Database format incompatible with this library version"
	}
}

// CheckCompatibility compares a table header against the current schema.
func CheckCompatibility(h Header) (Compatibility, error) {
	if h.Magic != TableMagic {
		return Incompatible, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, h.Magic)
	}
	switch {
	case h.SchemaMajor < SchemaMajor:
		return Compatible, nil
	case h.SchemaMajor == SchemaMajor && h.SchemaMinor <= SchemaMinor:
		return Compatible, nil
	case h.SchemaMajor == SchemaMajor:
		return BackwardOnly, nil
	default:
		return UpgradeNeeded, fmt.Errorf("%w: table schema %d.%d, library %d.%d",
			ErrIncompatibleSchema, h.SchemaMajor, h.SchemaMinor, SchemaMajor, SchemaMinor)
	}
}
