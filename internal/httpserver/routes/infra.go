package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/atlas/internal/metrics"
)

func init() { Register("infra", registerInfra, AdminOnly) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/infra", handlers.Infra(d))
	r.Method("GET", "/metrics", metrics.Handler())
}
