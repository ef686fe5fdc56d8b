package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/handlers"
)

func init() { Register("healthz", registerHealthz) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
