// Package validator checks service records before they are compiled.
//
// It works on the loosely-typed form of a record (domain.SourceRecord) so it
// can tell "port is missing" apart from "port is not an integer". Findings are
// split into blocking errors and non-blocking warnings; a record with zero
// errors is guaranteed to map cleanly onto domain.ServiceRecord.
package validator

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

var (
	idPattern       = regexp.MustCompile(`^[a-z0-9_]+$`)
	hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
)

var requiredServiceFields = []string{"id", "country", "provider", "endpoints", "coverage", "authentication", "quality"}

// Report is the outcome of validating one record.
type Report struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the record is eligible for encoding.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Validate checks a single record. It never mutates rec.
func Validate(rec domain.SourceRecord) Report {
	c := &checker{}

	if rec.Fields == nil {
		c.errorf("missing required field: service")
	} else {
		c.service(rec.Fields)
	}
	c.examples(rec.Examples)

	return c.report
}

type checker struct {
	report Report
}

func (c *checker) errorf(format string, args ...any) {
	c.report.Errors = append(c.report.Errors, fmt.Sprintf(format, args...))
}

func (c *checker) warnf(format string, args ...any) {
	c.report.Warnings = append(c.report.Warnings, fmt.Sprintf(format, args...))
}

func (c *checker) service(svc map[string]any) {
	for _, f := range requiredServiceFields {
		if _, ok := svc[f]; !ok {
			c.errorf("missing required service field: %s", f)
		}
	}

	if raw, ok := svc["id"]; ok {
		id, isStr := asString(raw)
		if !isStr || !idPattern.MatchString(id) {
			c.errorf("invalid service id format: %v (must be lowercase, numbers, underscores only)", raw)
		}
	}

	if raw, ok := svc["provider"]; ok {
		if p, isStr := asString(raw); !isStr || strings.TrimSpace(p) == "" {
			c.errorf("provider must be a non-empty string, got: %v", raw)
		}
	}

	if raw, ok := svc["country"]; ok {
		country, isStr := asString(raw)
		switch {
		case !isStr || country == "":
			c.errorf("country must be a non-empty string, got: %v", raw)
		case !KnownCountry(country):
			c.warnf("unknown country code: %s (consider adding it to the known list)", country)
		}
	}

	if raw, ok := svc["endpoints"]; ok {
		c.endpoints(raw)
	}
	if raw, ok := svc["coverage"]; ok {
		c.coverage(raw)
	}
	if raw, ok := svc["authentication"]; ok {
		c.authentication(raw)
	}
	if raw, ok := svc["quality"]; ok {
		c.quality(raw)
	}
}

// ─────────────────────────────
// Endpoints
// ─────────────────────────────

func (c *checker) endpoints(raw any) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		c.errorf("endpoints must be a non-empty list")
		return
	}

	for i, item := range list {
		prefix := fmt.Sprintf("endpoint[%d]", i)

		ep, ok := asMap(item)
		if !ok {
			c.errorf("%s: must be a mapping, got: %s", prefix, typeName(item))
			continue
		}

		for _, f := range []string{"hostname", "port"} {
			if _, ok := ep[f]; !ok {
				c.errorf("%s: missing required field: %s", prefix, f)
			}
		}

		if rawSSL, ok := ep["ssl"]; !ok {
			c.warnf("%s: missing 'ssl' field (defaults to false)", prefix)
		} else if _, isBool := rawSSL.(bool); !isBool {
			c.errorf("%s: ssl must be boolean, got: %s", prefix, typeName(rawSSL))
		}

		if rawHost, ok := ep["hostname"]; ok {
			c.hostname(prefix, rawHost)
		}

		if rawPort, ok := ep["port"]; ok {
			port, isInt := asInt(rawPort)
			if !isInt || port < 1 || port > 65535 {
				c.errorf("%s: invalid port: %v", prefix, rawPort)
			}
		}
	}
}

func (c *checker) hostname(prefix string, raw any) {
	host, ok := asString(raw)
	if !ok {
		c.errorf("%s: hostname must be a string, got: %s", prefix, typeName(raw))
		return
	}
	if !hostnamePattern.MatchString(host) {
		c.errorf("%s: invalid hostname format: %q", prefix, host)
	}
	if len(host) > domain.MaxHostnameLen {
		c.errorf("%s: hostname too long (max %d chars): %s (%d chars)", prefix, domain.MaxHostnameLen, host, len(host))
	}
}

// ─────────────────────────────
// Coverage
// ─────────────────────────────

func (c *checker) coverage(raw any) {
	cov, ok := asMap(raw)
	if !ok {
		c.errorf("coverage must be a mapping, got: %s", typeName(raw))
		return
	}

	if rawBox, ok := cov["bounding_box"]; ok {
		c.boundingBox(rawBox)
	} else {
		c.errorf("missing required service field: coverage.bounding_box")
	}

	if rawH, ok := cov["hierarchical"]; ok {
		c.hierarchical(rawH)
	}
}

func (c *checker) boundingBox(raw any) {
	box, ok := asMap(raw)
	if !ok {
		c.errorf("coverage bounding_box must be a mapping, got: %s", typeName(raw))
		return
	}

	fields := [4]string{"lat_min", "lat_max", "lon_min", "lon_max"}
	var vals [4]float64
	complete := true
	for i, f := range fields {
		v, present := box[f]
		if !present {
			c.errorf("coverage bounding_box missing: %s", f)
			complete = false
			continue
		}
		n, isNum := asNumber(v)
		if !isNum {
			c.errorf("coverage bounding_box %s must be a number, got: %v", f, v)
			complete = false
			continue
		}
		vals[i] = n
	}
	if !complete {
		return
	}

	latMin, latMax, lonMin, lonMax := vals[0], vals[1], vals[2], vals[3]

	if !inRange(latMin, -90, 90) || !inRange(latMax, -90, 90) {
		c.errorf("invalid latitude range: %v to %v", latMin, latMax)
	}
	if !inRange(lonMin, -180, 180) || !inRange(lonMax, -180, 180) {
		c.errorf("invalid longitude range: %v to %v", lonMin, lonMax)
	}
	if latMin >= latMax {
		c.errorf("lat_min (%v) must be less than lat_max (%v)", latMin, latMax)
	}
	if lonMin >= lonMax && !plausibleAntimeridian(lonMin, lonMax) {
		c.warnf("lon_min (%v) >= lon_max (%v) - check for dateline crossing", lonMin, lonMax)
	}
}

// plausibleAntimeridian matches boxes that wrap across ±180°, which are
// written with lon_min in the far east and lon_max in the far west.
func plausibleAntimeridian(lonMin, lonMax float64) bool {
	return lonMin > 150 && lonMax < -150
}

func (c *checker) hierarchical(raw any) {
	levels, ok := asMap(raw)
	if !ok {
		c.errorf("coverage hierarchical must be a mapping, got: %s", typeName(raw))
		return
	}

	for _, name := range sortedKeys(levels) {
		v := levels[name]
		if _, known := domain.ParseCoverageLevel(name); !known {
			c.warnf("coverage hierarchical: unknown level %q (ignored)", name)
			continue
		}
		q, isInt := asInt(v)
		if !isInt || q < 0 || q > 5 {
			c.errorf("coverage hierarchical %s must be integer 0-5, got: %v", name, v)
		}
	}
}

// ─────────────────────────────
// Authentication
// ─────────────────────────────

var authMethods = toSet(string(domain.AuthNone), string(domain.AuthBasic), string(domain.AuthDigest))

func (c *checker) authentication(raw any) {
	auth, ok := asMap(raw)
	if !ok {
		c.errorf("authentication must be a mapping, got: %s", typeName(raw))
		return
	}

	for _, f := range []string{"required", "method"} {
		if _, ok := auth[f]; !ok {
			c.errorf("authentication missing field: %s", f)
		}
	}

	if v, ok := auth["required"]; ok {
		if _, isBool := v.(bool); !isBool {
			c.errorf("authentication required must be boolean, got: %s", typeName(v))
		}
	}

	if v, ok := auth["method"]; ok {
		m, isStr := asString(v)
		if _, valid := authMethods[m]; !isStr || !valid {
			c.errorf("invalid authentication method: %v", v)
		}
	}

	if v, ok := auth["registration_required"]; ok {
		regRequired, isBool := v.(bool)
		if !isBool {
			c.errorf("authentication registration_required must be boolean, got: %s", typeName(v))
		} else if regRequired {
			if u, _ := asString(auth["registration_url"]); u == "" {
				c.warnf("registration_url recommended when registration_required=true")
			}
		}
	}

	for _, f := range []string{"registration_url", "terms_url"} {
		if v, ok := auth[f]; ok && v != nil {
			c.checkURL(f, v)
		}
	}
}

func (c *checker) checkURL(field string, raw any) {
	s, ok := asString(raw)
	if !ok {
		c.errorf("invalid %s: %v (must be a string)", field, raw)
		return
	}
	if s == "" {
		return
	}

	u, err := url.Parse(s)
	if err != nil {
		c.errorf("invalid %s: %s", field, s)
		return
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			c.errorf("invalid %s: %s (missing hostname)", field, s)
		}
	case "mailto":
	default:
		c.errorf("invalid %s scheme: %s (expected http, https, or mailto)", field, s)
	}
}

// ─────────────────────────────
// Quality
// ─────────────────────────────

var networkTypes = toSet(
	string(domain.NetworkGovernment),
	string(domain.NetworkCommercial),
	string(domain.NetworkCommunity),
)

func (c *checker) quality(raw any) {
	q, ok := asMap(raw)
	if !ok {
		c.errorf("quality must be a mapping, got: %s", typeName(raw))
		return
	}

	for _, f := range []string{"reliability_rating", "accuracy_rating", "network_type"} {
		if _, ok := q[f]; !ok {
			c.errorf("quality missing required field: %s", f)
		}
	}

	for _, f := range []string{"reliability_rating", "accuracy_rating"} {
		v, ok := q[f]
		if !ok {
			continue
		}
		rating, isInt := asInt(v)
		if !isInt || rating < 1 || rating > 5 {
			c.errorf("quality %s must be integer 1-5, got: %v", f, v)
		}
	}

	if v, ok := q["network_type"]; ok {
		nt, isStr := asString(v)
		if _, valid := networkTypes[nt]; !isStr || !valid {
			c.errorf("invalid network_type: %v (must be one of government, commercial, community)", v)
		}
	}
}

// ─────────────────────────────
// Example mountpoints
// ─────────────────────────────

func (c *checker) examples(examples []any) {
	for i, item := range examples {
		prefix := fmt.Sprintf("example[%d]", i)

		ex, ok := asMap(item)
		if !ok {
			c.errorf("%s: must be a mapping, got: %s", prefix, typeName(item))
			continue
		}

		rawCoords, ok := ex["coordinates"]
		if !ok {
			continue
		}
		coords, isList := rawCoords.([]any)
		if !isList || len(coords) != 2 {
			c.errorf("%s: coordinates must be [lat, lon] array", prefix)
			continue
		}

		lat, latOK := asNumber(coords[0])
		if !latOK || !inRange(lat, -90, 90) {
			c.errorf("%s: invalid latitude: %v", prefix, coords[0])
		}
		lon, lonOK := asNumber(coords[1])
		if !lonOK || !inRange(lon, -180, 180) {
			c.errorf("%s: invalid longitude: %v", prefix, coords[1])
		}
	}
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
