package compiler

import "github.com/MrSnakeDoc/atlas/internal/domain"

// Encode builds the compact form of a validated record.
//
// Only the first endpoint is encoded; the others are not represented in the
// fixed-width layout. Any error is an *domain.InvariantError: input
// that passed validation must always encode.
func Encode(rec *domain.ServiceRecord, cov domain.CoverageAssignment, providerIndex uint8) (domain.CompactServiceRecord, error) {
	var out domain.CompactServiceRecord

	if len(rec.Endpoints) == 0 {
		return out, domain.NewInvariantError("encode", rec.ID, "no endpoint")
	}
	ep := rec.Endpoints[0]

	if ep.Hostname == "" || len(ep.Hostname) > domain.MaxHostnameLen {
		return out, domain.NewInvariantError("encode", rec.ID, "hostname %q is %d bytes (max %d)",
			ep.Hostname, len(ep.Hostname), domain.MaxHostnameLen)
	}
	copy(out.Hostname[:], ep.Hostname)

	if ep.Port < 1 || ep.Port > 65535 {
		return out, domain.NewInvariantError("encode", rec.ID, "port %d out of range", ep.Port)
	}
	out.Port = uint16(ep.Port)

	flags, err := Flags(rec)
	if err != nil {
		return out, err
	}
	out.Flags = flags

	box := rec.Coverage.BoundingBox
	coords := []struct {
		name string
		deg  float64
		dst  *int16
	}{
		{"lat_min", box.LatMin, &out.LatMinDeg100},
		{"lat_max", box.LatMax, &out.LatMaxDeg100},
		{"lon_min", box.LonMin, &out.LonMinDeg100},
		{"lon_max", box.LonMax, &out.LonMaxDeg100},
	}
	for _, c := range coords {
		v, ok := domain.ToCentiDegrees(c.deg)
		if !ok {
			return out, domain.NewInvariantError("encode", rec.ID, "%s %v does not fit the fixed-point range", c.name, c.deg)
		}
		*c.dst = v
	}

	if cov.Levels&^domain.AllLevelsMask != 0 {
		return out, domain.NewInvariantError("encode", rec.ID, "coverage mask 0b%08b uses reserved bits", cov.Levels)
	}
	out.CoverageLevels = cov.Levels
	out.ProviderIndex = providerIndex

	code := rec.Quality.NetworkType.Code()
	if code == 0 {
		return out, domain.NewInvariantError("encode", rec.ID, "network type %q has no code", rec.Quality.NetworkType)
	}
	out.NetworkType = code

	rating := rec.Quality.ReliabilityRating
	if rating < 1 || rating > 5 {
		return out, domain.NewInvariantError("encode", rec.ID, "reliability rating %d out of range", rating)
	}
	out.QualityRating = uint8(rating)

	return out, nil
}

// Flags derives the flag byte of rec.
func Flags(rec *domain.ServiceRecord) (uint8, error) {
	var flags uint8

	if len(rec.Endpoints) > 0 && rec.Endpoints[0].SSL {
		flags |= domain.FlagSSL
	}

	switch rec.Authentication.Method {
	case domain.AuthBasic:
		flags |= domain.FlagAuthBasic
	case domain.AuthDigest:
		flags |= domain.FlagAuthDigest
	case domain.AuthNone:
	default:
		return 0, domain.NewInvariantError("encode", rec.ID, "authentication method %q", rec.Authentication.Method)
	}

	if rec.Authentication.RegistrationRequired {
		flags |= domain.FlagRequiresReg
	}
	if !rec.Authentication.Required {
		flags |= domain.FlagFreeAccess
	}
	if rec.Country == domain.CountryGlobal {
		flags |= domain.FlagGlobalService
	}

	return flags, nil
}
