package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/atlas/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.RateLimit(d.RateLimit))

		api.Get("/catalog", handlers.Catalog(d))
		api.Get("/catalog.bin", handlers.CatalogBinary(d))
		api.Get("/providers", handlers.Providers(d))
		api.Get("/services", handlers.Search(d))
		api.Get("/services/{id}", handlers.Service(d))
		api.Get("/coverage", handlers.Coverage(d))
		api.Get("/report", handlers.Report(d))
	})
}
