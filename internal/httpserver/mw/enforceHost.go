package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/utils"
)

// hostMatcher holds exact host names and "*.suffix" wildcards, lowercased.
// A wildcard matches subdomains only, not the bare suffix.
type hostMatcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newHostMatcher(hosts []string) hostMatcher {
	m := hostMatcher{exact: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "":
		case strings.HasPrefix(h, "*."):
			m.suffixes = append(m.suffixes, h[1:])
		default:
			m.exact[h] = struct{}{}
		}
	}
	return m
}

func (m hostMatcher) empty() bool {
	return len(m.exact) == 0 && len(m.suffixes) == 0
}

func (m hostMatcher) match(host string) bool {
	host = strings.ToLower(hostOnly(host))
	if _, ok := m.exact[host]; ok {
		return true
	}
	for _, s := range m.suffixes {
		if len(host) > len(s) && strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

// hostOnly drops the port from a Host header value.
func hostOnly(host string) string {
	if addr, ok := utils.ParseAddr(host); ok {
		return addr.String()
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}

// EnforceHost rejects requests whose Host header is not in allowedHosts.
// An empty list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	m := newHostMatcher(allowedHosts)
	if m.empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.match(r.Host) {
				log.Debug("request rejected by host rules",
					logger.String("host", r.Host),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
