package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/utils"
)

// AllowOnlyCIDRS restricts a route to clients inside the allowed prefixes.
// An empty list disables the check. Unparsable entries are logged and skipped.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, invalid := utils.NewIPMatcher(allowed)
	for _, s := range invalid {
		log.Warn("ignoring invalid CIDR rule", logger.String("rule", s))
	}
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := utils.ClientAddr(r, trustProxy)
			if !ok || !m.Allow(addr) {
				log.Debug("client rejected by CIDR rules",
					logger.String("client", utils.ClientIP(r, trustProxy)),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
