package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status         string    `json:"status"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	Build          buildInfo `json:"build"`
	CatalogVersion string    `json:"catalog_version,omitempty"`
}

// Healthz is the liveness probe. It answers 200 whether or not a catalog is
// loaded; readiness is /readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			Build:         build,
		}
		if cat := d.Index.Current(); cat != nil {
			resp.CatalogVersion = cat.Version.String()
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
