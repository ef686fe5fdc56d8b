package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/atlas/internal/httpserver/deps"
	"github.com/MrSnakeDoc/atlas/internal/logger"
)

type reloadResponse struct {
	Status string `json:"status"`
}

// Reload queues a recompilation. The trigger channel holds at most one
// pending request; a second one is refused until the reloader picks it up.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeError(w, http.StatusNotImplemented, "reload disabled")
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("catalog reload requested",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Status: "queued"})
		default:
			d.Logger.Warn("catalog reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusTooManyRequests, "reload already pending")
		}
	}
}
