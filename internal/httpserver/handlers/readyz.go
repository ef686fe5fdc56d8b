package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
}

// Readyz reports ready once a catalog is being served.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		cat := d.Index.Current()
		if cat == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Version: cat.Version.String()})
	}
}
