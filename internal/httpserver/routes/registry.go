package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/mw"
	"github.com/MrSnakeDoc/atlas/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler

	// Guard builds a middleware once the server dependencies are known.
	Guard func(d deps.Deps) Middleware
)

type entry struct {
	name   string
	reg    Registrar
	guards []Guard
}

var registry []entry

// Register adds a named route group. Guards wrap every route of the group.
func Register(name string, reg Registrar, guards ...Guard) {
	registry = append(registry, entry{name: name, reg: reg, guards: guards})
}

// AdminOnly limits a group to ATLAS_ALLOWED_CIDRS.
func AdminOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// KnownHost limits a group to ATLAS_ALLOWED_HOSTS.
func KnownHost(d deps.Deps) Middleware {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

// RegisterAll mounts every group on r. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.name)
		if len(e.guards) == 0 {
			e.reg(r, d)
			continue
		}
		mws := make([]Middleware, len(e.guards))
		for i, g := range e.guards {
			mws[i] = g(d)
		}
		e.reg(r.With(mws...), d)
	}
	d.Logger.Debug("routes registered", logger.String("groups", strings.Join(names, ",")))
}
