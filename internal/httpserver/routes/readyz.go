package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/handlers"
)

func init() { Register("readyz", registerReadyz, AdminOnly) }

func registerReadyz(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
