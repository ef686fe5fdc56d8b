package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	Version        string `json:"version,omitempty"`
	LastReload     string `json:"last_reload,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"catalog":  checkCatalog(d),
			"redis":    checkRedis(r.Context(), d),
			"compiler": checkCompiler(d),
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if c, ok := components["catalog"]; ok && !c.OK {
		return "critical" // nothing to serve
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkCatalog(d deps.Deps) componentStatus {
	cat := d.Index.Current()
	if cat == nil {
		return componentStatus{OK: false, Error: "no catalog loaded"}
	}

	count := len(cat.Services)
	return componentStatus{
		OK:             true,
		ServicesLoaded: &count,
		Version:        cat.Version.String(),
		LastReload:     d.Index.LastReload().UTC().Format(time.RFC3339),
	}
}

// checkCompiler reflects the last compilation attempt. A failed attempt
// leaves the previous catalog in place, so the service is degraded, not down.
func checkCompiler(d deps.Deps) componentStatus {
	if d.Reports == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	rep := d.Reports.LastReport()
	if rep == nil {
		return componentStatus{OK: true, Mode: "pending"}
	}
	if !rep.Success {
		return componentStatus{
			OK:         false,
			LastReload: rep.At.UTC().Format(time.RFC3339),
			Impact:     "serving-previous-catalog",
			Error:      rep.Error,
		}
	}
	return componentStatus{OK: true, Version: rep.Version, LastReload: rep.At.UTC().Format(time.RFC3339)}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "snapshots-not-persisted",
			Error:  err.Error(),
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}
