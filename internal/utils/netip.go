package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the origin sits behind a trusted
// proxy or tunnel.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ParseAddr parses "ip", "ip:port" or "[v6]:port". IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 rules.
func ParseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// ClientAddr resolves the client address of r. Proxy headers are only
// trusted when trustProxy is set; X-Forwarded-For contributes its left-most
// entry.
func ClientAddr(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if h == "X-Forwarded-For" {
				v, _, _ = strings.Cut(v, ",")
			}
			if addr, ok := ParseAddr(v); ok {
				return addr, true
			}
		}
	}
	return ParseAddr(r.RemoteAddr)
}

// ClientIP is ClientAddr as a string, falling back to the raw RemoteAddr so
// callers always get a usable key.
func ClientIP(r *http.Request, trustProxy bool) string {
	if addr, ok := ClientAddr(r, trustProxy); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

// IPMatcher matches addresses against a list of prefixes. Single addresses
// are stored as full-length prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list and returns the entries it could not parse.
func NewIPMatcher(list []string) (*IPMatcher, []string) {
	m := &IPMatcher{}
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, ok := ParseAddr(s); ok {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return m, invalid
}

// IsEmpty reports whether no rule was parsed.
func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

// Allow reports whether addr falls in one of the prefixes.
func (m *IPMatcher) Allow(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
